package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observatory-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticVerifier struct {
	password string
	err      error
}

func (v staticVerifier) Verify(_ context.Context, _ string, password string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	return password == v.password, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, Username(c))
	})
	r.Any("/", handlers...)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_Basic(t *testing.T) {
	r := newEngine(Authenticate(staticVerifier{password: "secret"}, nil, "test"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "secret")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "nope")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="test"`, w.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Digest abc")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestAuthenticate_StoreError(t *testing.T) {
	r := newEngine(Authenticate(staticVerifier{err: errors.New("db down")}, nil, "test"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "secret")
	assert.Equal(t, http.StatusInternalServerError, serve(r, req).Code)
}

func TestAuthenticate_Bearer(t *testing.T) {
	tokens := jwt.NewManager("k", time.Minute)
	token, _, err := tokens.GenerateAccessToken("alice")
	require.NoError(t, err)

	r := newEngine(Authenticate(staticVerifier{}, tokens, "test"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	// bearer disabled
	r = newEngine(Authenticate(staticVerifier{}, nil, "test"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestOptionalAuthenticate(t *testing.T) {
	r := newEngine(OptionalAuthenticate(staticVerifier{password: "secret"}, nil, "test"))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRequireJSON(t *testing.T) {
	r := newEngine(RequireJSON())

	for ct, want := range map[string]int{
		"application/json":                http.StatusOK,
		"application/json; charset=utf-8": http.StatusOK,
		"text/plain":                      http.StatusBadRequest,
		"":                                http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		assert.Equal(t, want, serve(r, req).Code, ct)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(HeaderRequestID))
}

type recordingObserver struct {
	path, status string
}

func (o *recordingObserver) ObserveHTTPRequest(_, path, status string, _ float64) {
	o.path, o.status = path, status
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	serve(r, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, "/items/:id", obs.path)
	assert.Equal(t, "418", obs.status)
}
