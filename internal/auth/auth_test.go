package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	testKey    = "test-key"
	testIssuer = "geoattend-test"
)

func TestIssueParseRoundTrip(t *testing.T) {
	tok, exp, err := Issue("stu-1", RoleStudent, testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("expiry %v too soon", exp)
	}
	claims, err := Parse(tok, testKey, testIssuer)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "stu-1" || claims.Role != RoleStudent {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	good, _, _ := Issue("stu-1", RoleStudent, testIssuer, testKey, time.Hour)
	expired, _, _ := Issue("stu-1", RoleStudent, testIssuer, testKey, -time.Minute)
	otherIssuer, _, _ := Issue("stu-1", RoleStudent, "someone-else", testKey, time.Hour)

	cases := map[string]struct{ tok, key string }{
		"wrong key":    {good, "other-key"},
		"expired":      {expired, testKey},
		"other issuer": {otherIssuer, testKey},
		"garbage":      {"abc.def.ghi", testKey},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(tc.tok, tc.key, testIssuer); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIssueValidatesInput(t *testing.T) {
	if _, _, err := Issue("", RoleStudent, testIssuer, testKey, time.Hour); err == nil {
		t.Fatal("empty subject accepted")
	}
	if _, _, err := Issue("x", "admin", testIssuer, testKey, time.Hour); err == nil {
		t.Fatal("unknown role accepted")
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", Authenticate(testKey, testIssuer))
	g.GET("/me", func(c *gin.Context) {
		p, _ := Principal(c)
		c.String(http.StatusOK, p.Subject)
	})
	g.GET("/lecturer", RequireRole(RoleLecturer), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthenticateHeaders(t *testing.T) {
	r := newRouter()
	tok, _, _ := Issue("stu-1", RoleStudent, testIssuer, testKey, time.Hour)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"bearer", "Authorization", "Bearer " + tok, http.StatusOK},
		{"lowercase bearer", "Authorization", "bearer " + tok, http.StatusOK},
		{"x-auth-token", "x-auth-token", tok, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"invalid", "Authorization", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != "stu-1" {
				t.Fatalf("principal = %q", w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter()
	student, _, _ := Issue("stu-1", RoleStudent, testIssuer, testKey, time.Hour)
	lecturer, _, _ := Issue("LECT001", RoleLecturer, testIssuer, testKey, time.Hour)

	for tok, want := range map[string]int{student: http.StatusForbidden, lecturer: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/lecturer", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("status = %d, want %d", w.Code, want)
		}
	}
}
