// AngelaMos | 2026
// handler.go

package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

const defaultMaxBodyBytes = 1 << 20

// Store is the persistence contract a resource exposes to the generic
// handler. T is the entity, C the create input and U the update input.
type Store[T, C, U any] interface {
	List(ctx context.Context, q Query) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, in *C) (*T, error)
	Update(ctx context.Context, id string, in *U) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Fields is the raw top-level keys of a decoded request body, for hooks
// that need to see what the client sent rather than what the input type
// kept.
type Fields map[string]json.RawMessage

func (f Fields) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return true
		}
	}
	return false
}

type Options[T, C, U any] struct {
	// Present maps an entity to its wire shape. Defaults to the entity.
	Present      func(*T) any
	BeforeCreate func(r *http.Request, fields Fields, in *C) error
	BeforeUpdate func(r *http.Request, fields Fields, in *U) error
	Validator    *validator.Validate
	MaxBodyBytes int64
}

type Handler[T, C, U any] struct {
	store Store[T, C, U]
	opts  Options[T, C, U]
}

func New[T, C, U any](
	store Store[T, C, U],
	opts Options[T, C, U],
) *Handler[T, C, U] {
	if opts.Present == nil {
		opts.Present = func(t *T) any { return t }
	}
	if opts.Validator == nil {
		opts.Validator = core.NewValidator()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &Handler[T, C, U]{store: store, opts: opts}
}

func (h *Handler[T, C, U]) List(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	items, err := h.store.List(r.Context(), q)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	out := make([]any, 0, len(items))
	for i := range items {
		presented, projErr := project(h.opts.Present(&items[i]), q.Fields)
		if projErr != nil {
			core.Fail(w, r, projErr)
			return
		}
		out = append(out, presented)
	}

	core.Success(w, http.StatusOK, map[string]any{
		"totalItems": len(out),
		"data":       map[string]any{"data": out},
	})
}

func (h *Handler[T, C, U]) Get(w http.ResponseWriter, r *http.Request) {
	h.GetByID(w, r, chi.URLParam(r, "id"))
}

// GetByID renders a single entity; routes that take the id from somewhere
// other than the URL call it directly.
func (h *Handler[T, C, U]) GetByID(
	w http.ResponseWriter,
	r *http.Request,
	id string,
) {
	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, h.opts.Present(item))
}

func (h *Handler[T, C, U]) Create(w http.ResponseWriter, r *http.Request) {
	var in C
	fields, err := h.decode(w, r, &in)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	if h.opts.BeforeCreate != nil {
		if err := h.opts.BeforeCreate(r, fields, &in); err != nil {
			core.Fail(w, r, err)
			return
		}
	}

	if err := h.validate(&in); err != nil {
		core.Fail(w, r, err)
		return
	}

	item, err := h.store.Create(r.Context(), &in)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Created(w, map[string]any{"data": h.opts.Present(item)})
}

func (h *Handler[T, C, U]) Update(w http.ResponseWriter, r *http.Request) {
	var in U
	fields, err := h.decode(w, r, &in)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	if h.opts.BeforeUpdate != nil {
		if err := h.opts.BeforeUpdate(r, fields, &in); err != nil {
			core.Fail(w, r, err)
			return
		}
	}

	if err := h.validate(&in); err != nil {
		core.Fail(w, r, err)
		return
	}

	item, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), &in)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, map[string]any{
		"data": map[string]any{"data": h.opts.Present(item)},
	})
}

func (h *Handler[T, C, U]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler[T, C, U]) decode(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
) (Fields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.BadRequestError("Request body too large")
		}
		return nil, core.BadRequestError("Invalid request body")
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	fields := Fields{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, core.BadRequestError("Invalid request body")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return nil, core.BadRequestError("Invalid request body")
	}

	return fields, nil
}

func (h *Handler[T, C, U]) validate(in any) error {
	if err := h.opts.Validator.Struct(in); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}
	return nil
}

// project keeps only the requested top-level keys plus id.
func project(v any, fields []string) (any, error) {
	if len(fields) == 0 {
		return v, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(fields)+1)
	if id, ok := full["id"]; ok {
		out["id"] = id
	}
	for _, f := range fields {
		if val, ok := full[f]; ok {
			out[f] = val
		}
	}

	return out, nil
}
