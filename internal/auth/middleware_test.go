package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type stubUsers map[string]models.User

func (s stubUsers) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func protectedHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		w.Header().Set("X-User", user.Username)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareAcceptsCookieAndBearer(t *testing.T) {
	manager := newTestManager(NewInMemoryRefreshStore())
	users := stubUsers{"user-1": {ID: "user-1", Username: "alice"}}
	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	handler := Middleware(manager, users)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/getCurrentUser", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tokens.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-User") != "alice" {
		t.Fatalf("cookie auth failed: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/getCurrentUser", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("bearer auth failed: %d", rec.Code)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	manager := newTestManager(NewInMemoryRefreshStore())
	deleted, err := manager.Issue(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	handler := Middleware(manager, stubUsers{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := map[string]string{
		"missing":      "",
		"malformed":    "Bearer nonsense",
		"unknown user": "Bearer " + deleted.AccessToken,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", name, rec.Code)
		}
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if body["success"] != false || body["statusCode"] != float64(401) {
			t.Fatalf("%s: unexpected envelope %v", name, body)
		}
	}
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookies(rec, models.SessionTokens{AccessToken: "a", RefreshToken: "r"}, true)
	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected two cookies got %d", len(cookies))
	}
	for _, c := range cookies {
		if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteNoneMode {
			t.Fatalf("unexpected cookie attributes: %+v", c)
		}
	}

	rec = httptest.NewRecorder()
	ClearSessionCookies(rec, false)
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("expected cleared cookie got %+v", c)
		}
	}
}
