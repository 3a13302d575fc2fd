// AngelaMos | 2026
// response.go

package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type debugKey struct{}

// WithDebug marks the request as allowed to see unexpected error details.
func WithDebug(ctx context.Context, debug bool) context.Context {
	return context.WithValue(ctx, debugKey{}, debug)
}

func DebugFromContext(ctx context.Context) bool {
	debug, _ := ctx.Value(debugKey{}).(bool)
	return debug
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

// Success writes {"status":"success", ...fields}.
func Success(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["status"] = "success"

	JSON(w, status, body)
}

func OK(w http.ResponseWriter, data any) {
	Success(w, http.StatusOK, map[string]any{"data": data})
}

func Created(w http.ResponseWriter, data any) {
	Success(w, http.StatusCreated, map[string]any{"data": data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Fail renders err for an API request. Operational errors keep their
// message; anything else is logged and masked unless the request runs in
// debug mode.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	debug := DebugFromContext(ctx)

	appErr, ok := Translate(err)
	if !ok {
		slog.ErrorContext(ctx, "unhandled error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)

		body := map[string]any{
			"status":  "error",
			"message": "Something went wrong",
		}
		if debug {
			body["message"] = err.Error()
			body["error"] = err.Error()
		}
		JSON(w, http.StatusInternalServerError, body)
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "operational error",
			"error", err,
			"path", r.URL.Path,
		)
	}

	body := map[string]any{
		"status":  appErr.Status(),
		"message": appErr.Message,
	}
	if debug {
		body["code"] = appErr.Code
		if cause := appErr.Unwrap(); cause != nil {
			body["error"] = cause.Error()
		}
	}
	JSON(w, appErr.StatusCode, body)
}

// IsAPIPath reports whether the request targets the JSON API rather than a
// rendered page.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// NewValidator returns a validator that reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
