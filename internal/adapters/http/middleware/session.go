package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

// OperatorCookie names the cookie carrying the operator session token.
const OperatorCookie = "academy_operator"

// SessionTTL is how long an idle operator session lives.
const SessionTTL = 12 * time.Hour

type contextKey string

const operatorContextKey contextKey = "operator"

// Operator identifies one console session. Editors are scoped to it so two tabs never share pending moves.
type Operator struct {
	Token    string
	LastSeen time.Time
}

// SessionStore holds operator sessions in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Operator
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Operator), now: time.Now}
}

// Touch returns the live session for token, creating a new one when token is unknown or expired.
// PRE: none
// POST: the returned operator is stored with LastSeen set to now
func (s *SessionStore) Touch(token string) (Operator, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if op, ok := s.sessions[token]; ok && now.Sub(op.LastSeen) < SessionTTL {
		op.LastSeen = now
		return *op, false, nil
	}
	delete(s.sessions, token)
	fresh, err := generateToken()
	if err != nil {
		return Operator{}, false, err
	}
	op := &Operator{Token: fresh, LastSeen: now}
	s.sessions[fresh] = op
	return *op, true, nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// OperatorSession attaches an Operator to every request, issuing a cookie on first visit.
func OperatorSession(store *SessionStore, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(OperatorCookie); err == nil {
				token = c.Value
			}
			op, created, err := store.Touch(token)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     OperatorCookie,
					Value:    op.Token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(SessionTTL.Seconds()),
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithOperator(r.Context(), op)))
		})
	}
}

// ContextWithOperator stores op in ctx.
func ContextWithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey, op)
}

// OperatorFromContext returns the request's operator.
func OperatorFromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorContextKey).(Operator)
	return op, ok
}
