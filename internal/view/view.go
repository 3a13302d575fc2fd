// AngelaMos | 2026
// view.go

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
)

//go:embed templates
var templateFS embed.FS

// PhotoBase is where locally stored profile photos are served from.
const PhotoBase = "/img/users/"

const (
	pageOverview = "overview"
	pageAccount  = "account"
	pageError    = "error"
)

type Page struct {
	Title   string
	User    *middleware.Identity
	Message string
}

// Renderer executes the embedded pages inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"photoURL":  PhotoURL,
		"firstName": firstName,
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageOverview, pageAccount, pageError} {
		t, err := template.New(name).Funcs(funcs).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		r.pages[name] = t
	}

	return r, nil
}

func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	t, ok := v.pages[name]
	if !ok {
		v.Error(w, r, http.StatusInternalServerError, "Page not found")
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		slog.ErrorContext(r.Context(), "render page failed",
			"page", name,
			"error", err,
		)
		if name != pageError {
			v.Error(w, r, http.StatusInternalServerError, "Please try again later.")
			return
		}
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_, _ = buf.WriteTo(w)
}

// Error renders the error page for browser requests.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.Render(w, r, status, pageError, Page{
		Title:   "Something went wrong",
		User:    middleware.GetIdentity(r.Context()),
		Message: message,
	})
}

type Handler struct {
	renderer *Renderer
}

func NewHandler(renderer *Renderer) *Handler {
	return &Handler{renderer: renderer}
}

// RegisterRoutes mounts the pages. optionalAuth attaches the cookie
// identity when there is one.
func (h *Handler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/", h.Overview)
		r.Get("/me", h.Account)
	})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageOverview, Page{
		Title: "Overview",
		User:  middleware.GetIdentity(r.Context()),
	})
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, pageAccount, Page{
		Title: "Your account",
		User:  id,
	})
}

// PhotoURL resolves a stored photo value. Object storage keeps absolute
// URLs; local uploads keep a bare file name.
func PhotoURL(photo string) string {
	if strings.HasPrefix(photo, "http://") || strings.HasPrefix(photo, "https://") {
		return photo
	}
	return PhotoBase + photo
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}
