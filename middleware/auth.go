package middleware

import (
	"context"
	"net/http"
	"strings"

	"farm-store/models"
	"farm-store/utils"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Key type for context
type contextKey string

const SessionContextKey = contextKey("session")

// SessionName is the name of the login session cookie
const SessionName = "farm-session"

// Session is the caller's identity for one request. The zero value is an
// anonymous caller.
type Session struct {
	Claims *utils.Claims
	role   string
}

// Authenticated reports whether the caller presented a valid token
func (s *Session) Authenticated() bool {
	return s != nil && s.Claims != nil
}

// Role returns the cached role, falling back to the token claim
func (s *Session) Role() string {
	if !s.Authenticated() {
		return ""
	}
	if s.role != "" {
		return s.role
	}
	return s.Claims.Role
}

// FromContext returns the Session attached by Authenticate
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(SessionContextKey).(*Session); ok {
		return s
	}
	return &Session{}
}

// NewCookieStore creates the cookie store holding login sessions
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(utils.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionManager hydrates sessions from a Bearer header or the session cookie
type SessionManager struct {
	store  sessions.Store
	tokens *utils.TokenIssuer
	logger *zap.Logger
}

// NewSessionManager creates a SessionManager
func NewSessionManager(store sessions.Store, tokens *utils.TokenIssuer, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{store: store, tokens: tokens, logger: logger}
}

// Load resolves the caller of r. A Bearer header wins over the cookie.
func (m *SessionManager) Load(r *http.Request) *Session {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return &Session{}
		}
		claims, err := m.tokens.Parse(parts[1])
		if err != nil {
			m.logger.Debug("rejected bearer token", zap.Error(err))
			return &Session{}
		}
		return &Session{Claims: claims}
	}

	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		m.logger.Debug("unreadable session cookie", zap.Error(err))
		return &Session{}
	}
	token, _ := sess.Values["token"].(string)
	if token == "" {
		return &Session{}
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		m.logger.Debug("rejected session token", zap.Error(err))
		return &Session{}
	}
	role, _ := sess.Values["role"].(string)
	return &Session{Claims: claims, role: role}
}

// Start stores token and the profile role in the session cookie
func (m *SessionManager) Start(w http.ResponseWriter, r *http.Request, token string, profile *models.Profile) error {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values["token"] = token
	sess.Values["role"] = profile.Role
	return sess.Save(r, w)
}

// End clears the session, dropping the cached role
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, SessionName)
	delete(sess.Values, "token")
	delete(sess.Values, "role")
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Authenticate attaches the caller's Session to the request context. It never
// rejects a request.
func (m *SessionManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), SessionContextKey, m.Load(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous callers
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).Authenticated() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
