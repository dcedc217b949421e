package middleware

import (
	"net/http"

	"github.com/mcoot/liveclass/internal/api/apierr"
)

// AdminSecretHeader carries the admin secret on admin requests
const AdminSecretHeader = "X-Admin-Secret"

// Verifier checks a presented admin secret
type Verifier interface {
	Verify(presented string) error
}

// AdminSecret creates middleware that rejects requests without a valid admin secret
func AdminSecret(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.Verify(r.Header.Get(AdminSecretHeader)); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
