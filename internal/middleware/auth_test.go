package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"docsearch/internal/pkg/authgw"
)

type fakeVerifier struct {
	info authgw.UserInfo
	err  error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (authgw.UserInfo, error) {
	return f.info, f.err
}

func newAuthRouter(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BearerAuth(v, zap.NewNop()))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func TestBearerAuthValidToken(t *testing.T) {
	router := newAuthRouter(&fakeVerifier{info: authgw.UserInfo{
		"user": map[string]any{"id": "u-42"},
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-42")
}

func TestBearerAuthMissingHeader(t *testing.T) {
	router := newAuthRouter(&fakeVerifier{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing Authorization header")
}

func TestBearerAuthMalformedHeader(t *testing.T) {
	router := newAuthRouter(&fakeVerifier{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthVerificationFailure(t *testing.T) {
	router := newAuthRouter(&fakeVerifier{err: authgw.ErrVerificationFailed})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthUnresolvableIdentityListsFields(t *testing.T) {
	router := newAuthRouter(&fakeVerifier{info: authgw.UserInfo{
		"email": "a@b.c",
		"name":  "somebody",
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	assert.Contains(t, w.Body.String(), "User ID not found in identity response")
	assert.Contains(t, w.Body.String(), "available_fields")
	assert.Contains(t, w.Body.String(), "email")
	// The chain was aborted; the protected handler never ran.
	assert.NotContains(t, w.Body.String(), `"user_id"`)
}
