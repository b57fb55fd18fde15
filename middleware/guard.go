package middleware

import (
	"net/http"

	"farm-store/models"
)

// Redirect targets for the admin guard
const (
	LoginPath        = "/auth"
	UnauthorizedPath = "/unauthorized"
)

// Decision is the outcome of a route guard
type Decision struct {
	Allow    bool
	Redirect string
}

// AdminDecision allows admins, sends anonymous callers to the login page and
// everyone else to the unauthorized page.
func AdminDecision(s *Session) Decision {
	switch {
	case !s.Authenticated():
		return Decision{Redirect: LoginPath}
	case s.Role() != models.RoleAdmin:
		return Decision{Redirect: UnauthorizedPath}
	}
	return Decision{Allow: true}
}

// RequireAdmin applies AdminDecision to each request
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := AdminDecision(FromContext(r.Context()))
		if !d.Allow {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
