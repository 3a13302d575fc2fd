// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
	"github.com/carterperez-dev/templates/accounts-api/internal/user"
)

type HandlerConfig struct {
	MaxBodyBytes int64
	Cookie       CookieConfig
	// PublicURL is the origin emailed links point at. Request headers are
	// never used for it.
	PublicURL string
}

type Handler struct {
	service   *Service
	validator *validator.Validate
	cfg       HandlerConfig
	now       func() time.Time
}

func NewHandler(service *Service, cfg HandlerConfig) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the auth endpoints at the router root. limiter
// guards every credential-bearing route; signout is left open.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, limiter func(http.Handler) http.Handler,
) {
	r.Get("/signout", h.Signout)

	r.Group(func(r chi.Router) {
		r.Use(limiter)

		r.Post("/signup", h.Signup)
		r.Post("/signin", h.Signin)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Patch("/reset-password/{token}", h.ResetPassword)

		r.With(authenticator).Patch("/update-password", h.UpdatePassword)
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := h.decode(w, r, &req); err != nil {
		core.Fail(w, r, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.Fail(w, r, core.ValidationError(core.FormatValidationError(err)))
		return
	}

	sess, err := h.service.Signup(r.Context(), req, h.cfg.PublicURL+"/me")
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	h.sendSession(w, http.StatusCreated, sess)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := h.decode(w, r, &req); err != nil {
		core.Fail(w, r, err)
		return
	}

	sess, err := h.service.Signin(r.Context(), req)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	h.sendSession(w, http.StatusOK, sess)
}

func (h *Handler) Signout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.cfg.Cookie.loggedOut(h.now()))
	core.Success(w, http.StatusOK, nil)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		core.Fail(w, r, err)
		return
	}

	resetBase := h.cfg.PublicURL + "/api/reset-password/"
	if err := h.service.ForgotPassword(r.Context(), req.Email, resetBase); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, map[string]any{
		"message": "Token sent to email!",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		core.Fail(w, r, err)
		return
	}

	sess, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	h.sendSession(w, http.StatusOK, sess)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		core.Fail(w, r, err)
		return
	}

	sess, err := h.service.UpdatePassword(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	h.sendSession(w, http.StatusOK, sess)
}

func (h *Handler) sendSession(w http.ResponseWriter, status int, sess *Session) {
	http.SetCookie(w, h.cfg.Cookie.session(sess.Token, h.now()))

	core.Success(w, status, map[string]any{
		"token": sess.Token,
		"data":  map[string]any{"user": user.ToUserResponse(sess.User)},
	})
}

// decode reads a JSON body. An empty body decodes to the zero value so the
// service can report which fields are missing.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return core.BadRequestError("Invalid request body")
	}
	return nil
}
