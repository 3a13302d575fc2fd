// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
	"github.com/carterperez-dev/templates/accounts-api/internal/resource"
)

const photoField = "photo"

var errPasswordRoute = core.BadRequestError(
	"This route is not for password updates. Please use /update-password.",
)

type HandlerConfig struct {
	MaxBodyBytes  int64
	MaxPhotoBytes int64
}

type Handler struct {
	service   *Service
	admin     *resource.Handler[User, CreateUserRequest, UpdateUserRequest]
	validator *validator.Validate
	cfg       HandlerConfig
}

func NewHandler(service *Service, cfg HandlerConfig) *Handler {
	v := core.NewValidator()

	h := &Handler{
		service:   service,
		validator: v,
		cfg:       cfg,
	}

	h.admin = resource.New(
		NewAdminStore(service),
		resource.Options[User, CreateUserRequest, UpdateUserRequest]{
			Present:      presentUser,
			BeforeCreate: h.beforeCreate,
			BeforeUpdate: rejectPasswordFields,
			Validator:    v,
			MaxBodyBytes: cfg.MaxBodyBytes,
		},
	)

	return h
}

func presentUser(u *User) any {
	return ToUserResponse(u)
}

// beforeCreate gives admin-created accounts the configured initial password
// when the request names none.
func (h *Handler) beforeCreate(
	_ *http.Request,
	fields resource.Fields,
	in *CreateUserRequest,
) error {
	if !fields.Has("password") {
		in.Password = h.service.DefaultPassword()
		in.PasswordConfirm = in.Password
	}
	return nil
}

func rejectPasswordFields(
	_ *http.Request,
	fields resource.Fields,
	_ *UpdateUserRequest,
) error {
	if fields.Has(PasswordFields...) {
		return errPasswordRoute
	}
	return nil
}

// RegisterRoutes mounts /users. Every route requires authentication; all
// but the /me routes are limited to admins.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/", h.admin.List)
			r.Post("/", h.admin.Create)
			r.Get("/{id}", h.admin.Get)
			r.Patch("/{id}", h.admin.Update)
			r.Delete("/{id}", h.admin.Delete)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.admin.GetByID(w, r, middleware.GetUserID(r.Context()))
}

// UpdateMe accepts JSON or a multipart form carrying name and an optional
// photo file. Only those fields are applied.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var (
		req   UpdateMeRequest
		photo io.ReadCloser
		err   error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, photo, err = h.readMultipart(w, r)
	} else {
		req, err = h.readJSON(w, r)
	}
	if err != nil {
		core.Fail(w, r, err)
		return
	}
	if photo != nil {
		defer photo.Close() //nolint:errcheck // read-only upload
	}

	if err := h.validator.Struct(req); err != nil {
		core.Fail(w, r, core.ValidationError(core.FormatValidationError(err)))
		return
	}

	var src io.Reader
	if photo != nil {
		src = photo
	}

	user, err := h.service.UpdateMe(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
		src,
	)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, map[string]any{
		"data": map[string]any{"user": ToUserResponse(user)},
	})
}

func (h *Handler) readJSON(
	w http.ResponseWriter,
	r *http.Request,
) (UpdateMeRequest, error) {
	var req UpdateMeRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		return req, core.BadRequestError("Invalid request body")
	}
	if len(body) == 0 {
		return req, nil
	}

	var fields resource.Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		return req, core.BadRequestError("Invalid request body")
	}
	if fields.Has(PasswordFields...) {
		return req, errPasswordRoute
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, core.BadRequestError("Invalid request body")
	}

	return req, nil
}

func (h *Handler) readMultipart(
	w http.ResponseWriter,
	r *http.Request,
) (UpdateMeRequest, io.ReadCloser, error) {
	var req UpdateMeRequest

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPhotoBytes+h.cfg.MaxBodyBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, core.BadRequestError("Photo is too large")
		}
		return req, nil, core.BadRequestError("Invalid multipart form")
	}

	for _, key := range PasswordFields {
		if _, ok := r.MultipartForm.Value[key]; ok {
			return req, nil, errPasswordRoute
		}
	}

	if names, ok := r.MultipartForm.Value["name"]; ok && len(names) > 0 {
		name := names[0]
		req.Name = &name
	}

	file, _, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, core.BadRequestError("Invalid photo upload")
	}

	return req, file, nil
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.NoContent(w)
}
