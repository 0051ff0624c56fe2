package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/fitlog/pkg"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := pkg.ReadUserIP(r)
			if err != nil {
				ip = "unknown"
			}
			log.WithFields(log.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"ip":     ip,
				"ua":     r.Header.Get("User-Agent"),
			}).Trace(" ====> request")
			next.ServeHTTP(w, r)
		})
	}
}
