package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// maxDrainBytes bounds how much of an unread body is discarded; anything
// larger is left to the connection being closed.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest reads what the handler left of the request body, up to
// maxDrainBytes, so the keep-alive connection can be reused, then closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil {
				return
			}
			if _, err := io.CopyN(io.Discard, r.Body, maxDrainBytes); err != nil && err != io.EOF {
				log.Tracef("drain request body [%s %s]: %s", r.Method, r.URL.Path, err)
			}
			if err := r.Body.Close(); err != nil {
				log.Tracef("close request body [%s %s]: %s", r.Method, r.URL.Path, err)
			}
		})
	}
}
