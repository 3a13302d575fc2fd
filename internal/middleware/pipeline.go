// AngelaMos | 2026
// pipeline.go

package middleware

import (
	"net/http"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

// Stage inspects a request and returns the request to continue with,
// possibly carrying an enriched context, or an error that ends it.
type Stage func(r *http.Request) (*http.Request, error)

// Pipeline runs stages in order and stops at the first error.
type Pipeline []Stage

func Chain(stages ...Stage) Pipeline {
	return Pipeline(stages)
}

func (p Pipeline) Run(r *http.Request) (*http.Request, error) {
	for _, stage := range p {
		next, err := stage(r)
		if err != nil {
			return r, err
		}
		r = next
	}
	return r, nil
}

func (p Pipeline) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, err := p.Run(r)
		if err != nil {
			core.Fail(w, r, err)
			return
		}
		next.ServeHTTP(w, out)
	})
}
