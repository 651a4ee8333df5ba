package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

// asCaller stands in for the gate: it pins the caller the handler will see.
func asCaller(c auth.Caller) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middlewares.CtxCaller, c)
		ctx.Next()
	}
}

// setupRouter mounts one handler per test, optionally behind a fixed caller.
func setupRouter(method, path string, caller auth.Caller, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	if caller != nil {
		r.Use(asCaller(caller))
	}

	r.Handle(method, path, h)

	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v, body=%s", err, w.Body.String())
	}
	return body
}

func strPtr(s string) *string { return &s }
