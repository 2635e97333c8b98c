package middleware

import (
	"crypto/subtle"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/respond"
)

// CronSecretHeader carries the shared secret of the scheduler.
const CronSecretHeader = "X-Cron-Secret"

// RequireCronSecret admits only requests presenting secret. An empty secret
// rejects everything.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(CronSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.WithField("remote_ip", getClientIP(r)).Warn("Rejected cron request")
				respond.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
