package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collection-listing/internal/http/response"
	"github.com/yungbote/collection-listing/internal/platform/ctxutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/services"
)

func authRouter(t *testing.T, require bool) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	as := services.NewAuthService(logger.Nop(), "secret", "", time.Hour)
	am := NewAuthMiddleware(logger.Nop(), as)

	r := gin.New()
	if require {
		r.Use(am.RequireAuth())
	} else {
		r.Use(am.OptionalAuth())
	}
	r.GET("/whoami", func(c *gin.Context) {
		principal := ""
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			principal = rd.Principal
		}
		c.String(http.StatusOK, principal)
	})
	return r, as
}

func serve(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOptionalAuth(t *testing.T) {
	r, as := authRouter(t, false)
	token, err := as.IssueToken("editor")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if rec := serve(r, ""); rec.Code != http.StatusOK || rec.Body.String() != "" {
		t.Fatalf("anonymous: code=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec := serve(r, token); rec.Code != http.StatusOK || rec.Body.String() != "editor" {
		t.Fatalf("authenticated: code=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec := serve(r, "bogus"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: want=401 got=%d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	r, as := authRouter(t, true)
	token, err := as.IssueToken("editor")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if rec := serve(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: want=401 got=%d", rec.Code)
	}
	if rec := serve(r, token); rec.Code != http.StatusOK || rec.Body.String() != "editor" {
		t.Fatalf("authenticated: code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRejectedTokenUsesErrorEnvelope(t *testing.T) {
	r, _ := authRouter(t, true)
	rec := serve(r, "bogus")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code: want=401 got=%d", rec.Code)
	}
	var body response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "unauthorized" || body.Error.Message != "unauthorized" {
		t.Fatalf("error: got=%+v", body.Error)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer":         "",
		"Bearer ":        "",
		"bearer abc":     "abc",
		"  BEARER  x.y ": "x.y",
		"Basic abc":      "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q): want=%q got=%q", in, want, got)
		}
	}
}
