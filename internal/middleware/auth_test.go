package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/auth"
)

func newTestAuth() (*AuthMiddleware, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Minute)
	return NewAuthMiddleware(tokens), tokens
}

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	m, tokens := newTestAuth()

	token, expiresAt, err := tokens.Issue("alice", false)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("claims not in context")
		}
		if claims.Username() != "alice" {
			t.Fatalf("username from context = %q, want alice", claims.Username())
		}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.SetAuthCookie(w, token, expiresAt)
	resCookies := w.Result().Cookies()
	if len(resCookies) == 0 {
		t.Fatalf("no cookies set by SetAuthCookie")
	}

	r.AddCookie(resCookies[0])

	m.Required(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithBearerHeader(t *testing.T) {
	m, tokens := newTestAuth()

	token, _, err := tokens.Issue("bob", true)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	m.Required(m.Admin(next)).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithoutToken(t *testing.T) {
	m, _ := newTestAuth()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.Required(next).ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	if got := res.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q, want Bearer", got)
	}
}

func TestAuthMiddleware_AdminForbidden(t *testing.T) {
	m, tokens := newTestAuth()

	token, _, err := tokens.Issue("carol", false)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	m.Required(m.Admin(next)).ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAuthMiddleware_Optional(t *testing.T) {
	m, _ := newTestAuth()

	t.Run("anonymous", func(t *testing.T) {
		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			if _, ok := ClaimsFromContext(r.Context()); ok {
				t.Fatalf("claims should not be in context")
			}
		})

		m.Optional(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/breaks", nil))

		if !nextCalled {
			t.Fatalf("next handler was not called")
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("next handler should not be called")
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/breaks", nil)
		r.Header.Set("Authorization", "Bearer garbage")

		m.Optional(next).ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	w := httptest.NewRecorder()
	RequestID(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatalf("request id not generated")
	}
	if got := w.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("X-Request-Id = %q, want %q", got, seen)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "abc")
	RequestID(next).ServeHTTP(httptest.NewRecorder(), r)
	if seen != "abc" {
		t.Fatalf("request id = %q, want abc", seen)
	}
}
