package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"sync"

	"classpulse/internal/model"
	"classpulse/internal/session"
)

const sessionCookieName = "classpulse_session"

func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// registry maps browser session tokens to lifecycle sessions. Entries
// live for the process lifetime; everything durable is in the store.
type registry struct {
	mu         sync.Mutex
	sessions   map[string]*session.Session
	newSession func() *session.Session
}

func newRegistry(newSession func() *session.Session) *registry {
	return &registry{
		sessions:   make(map[string]*session.Session),
		newSession: newSession,
	}
}

// get returns the session for token, or nil when the token is unknown.
func (reg *registry) get(token string) *session.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.sessions[token]
}

// create allocates a fresh token bound to a fresh session.
func (reg *registry) create() (string, *session.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", nil, err
	}
	sess := reg.newSession()
	reg.mu.Lock()
	reg.sessions[token] = sess
	reg.mu.Unlock()
	return token, sess, nil
}

type sessionCtxKey struct{}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*session.Session)
	return sess
}

// withSession binds the request to its lifecycle session, issuing a
// cookie on first contact. An unknown token (server restart) gets a
// fresh session the same way.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		token := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			token = cookie.Value
			sess = h.registry.get(token)
		}
		if sess == nil {
			var err error
			token, sess, err = h.registry.create()
			if err != nil {
				slog.Error("failed to create session token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := model.ContextWithSessionID(r.Context(), token)
		ctx = context.WithValue(ctx, sessionCtxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
