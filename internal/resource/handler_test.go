// AngelaMos | 2026
// handler_test.go

package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

type tour struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Secret   string `json:"-"`
	Duration int    `json:"duration"`
}

type createTour struct {
	Name     string `json:"name"     validate:"required"`
	Duration int    `json:"duration" validate:"min=1"`
}

type updateTour struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

type memStore struct {
	items     map[string]*tour
	order     []string
	lastQuery Query
}

func newMemStore() *memStore {
	return &memStore{items: map[string]*tour{}}
}

func (m *memStore) add(t *tour) {
	m.items[t.ID] = t
	m.order = append(m.order, t.ID)
}

func (m *memStore) List(_ context.Context, q Query) ([]tour, error) {
	m.lastQuery = q
	out := make([]tour, 0, len(m.order))
	for _, id := range m.order {
		if t, ok := m.items[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id string) (*tour, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return t, nil
}

func (m *memStore) Create(_ context.Context, in *createTour) (*tour, error) {
	t := &tour{ID: "t" + string(rune('0'+len(m.order))), Name: in.Name, Duration: in.Duration}
	m.add(t)
	return t, nil
}

func (m *memStore) Update(_ context.Context, id string, in *updateTour) (*tour, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	return t, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func newRouter(h *Handler[tour, createTour, updateTour]) chi.Router {
	r := chi.NewRouter()
	r.Get("/tours", h.List)
	r.Post("/tours", h.Create)
	r.Get("/tours/{id}", h.Get)
	r.Patch("/tours/{id}", h.Update)
	r.Delete("/tours/{id}", h.Delete)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHandlerListEnvelopeAndProjection(t *testing.T) {
	store := newMemStore()
	store.add(&tour{ID: "a", Name: "Forest Hiker", Duration: 5, Secret: "x"})
	store.add(&tour{ID: "b", Name: "Sea Explorer", Duration: 7})

	r := newRouter(New(store, Options[tour, createTour, updateTour]{}))

	rec, body := do(t, r, http.MethodGet, "/tours?fields=name&sort=-duration", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["totalItems"])

	data := body["data"].(map[string]any)["data"].([]any)
	first := data[0].(map[string]any)
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, "Forest Hiker", first["name"])
	assert.NotContains(t, first, "duration")

	assert.Equal(t, []SortField{{Field: "duration", Desc: true}}, store.lastQuery.Sort)
}

func TestHandlerGet(t *testing.T) {
	store := newMemStore()
	store.add(&tour{ID: "a", Name: "Forest Hiker", Duration: 5})
	r := newRouter(New(store, Options[tour, createTour, updateTour]{
		Present: func(t *tour) any { return map[string]any{"id": t.ID, "label": t.Name} },
	}))

	rec, body := do(t, r, http.MethodGet, "/tours/a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Forest Hiker", body["data"].(map[string]any)["label"])

	rec, body = do(t, r, http.MethodGet, "/tours/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Couldn't find document with that ID", body["message"])
}

func TestHandlerCreate(t *testing.T) {
	store := newMemStore()
	r := newRouter(New(store, Options[tour, createTour, updateTour]{
		BeforeCreate: func(_ *http.Request, _ Fields, in *createTour) error {
			if in.Duration == 0 {
				in.Duration = 1
			}
			return nil
		},
	}))

	rec, body := do(t, r, http.MethodPost, "/tours", `{"name":"Snow Adventurer"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := body["data"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "Snow Adventurer", created["name"])
	assert.EqualValues(t, 1, created["duration"])
}

func TestHandlerCreateValidation(t *testing.T) {
	r := newRouter(New(newMemStore(), Options[tour, createTour, updateTour]{}))

	rec, body := do(t, r, http.MethodPost, "/tours", `{"duration":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", body["message"])

	rec, _ = do(t, r, http.MethodPost, "/tours", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateHookSeesRawFields(t *testing.T) {
	store := newMemStore()
	store.add(&tour{ID: "a", Name: "Forest Hiker", Duration: 5})

	r := newRouter(New(store, Options[tour, createTour, updateTour]{
		BeforeUpdate: func(_ *http.Request, fields Fields, _ *updateTour) error {
			if fields.Has("secret") {
				return core.BadRequestError("secret is read only")
			}
			return nil
		},
	}))

	rec, body := do(t, r, http.MethodPatch, "/tours/a", `{"secret":"y"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "secret is read only", body["message"])

	rec, body = do(t, r, http.MethodPatch, "/tours/a", `{"name":"The Forest Hiker"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := body["data"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "The Forest Hiker", updated["name"])
}

func TestHandlerDelete(t *testing.T) {
	store := newMemStore()
	store.add(&tour{ID: "a"})
	r := newRouter(New(store, Options[tour, createTour, updateTour]{}))

	rec, _ := do(t, r, http.MethodDelete, "/tours/a", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec, _ = do(t, r, http.MethodDelete, "/tours/a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
