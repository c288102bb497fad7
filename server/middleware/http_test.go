package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/server/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	return rr
}

func TestRecovery(t *testing.T) {
	e := gin.New()
	e.Use(middleware.Recovery(logger.NewNop()))
	e.GET("/status", func(*gin.Context) { panic("nil snapshot") })
	e.GET("/livez", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rr := serve(t, e, http.MethodGet, "/status", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("body = %s (%v)", rr.Body, err)
	}
	if strings.Contains(rr.Body.String(), "nil snapshot") {
		t.Error("panic value must not reach the client")
	}

	if rr := serve(t, e, http.MethodGet, "/livez", nil); rr.Code != http.StatusOK {
		t.Errorf("engine must keep serving, got %d", rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	e := gin.New()
	e.Use(middleware.RequestID())
	e.GET("/", func(c *gin.Context) { seen = c.GetString(middleware.RequestIDKey) })

	rr := serve(t, e, http.MethodGet, "/", nil)
	id := rr.Header().Get(middleware.HeaderRequestID)
	if id == "" || id != seen {
		t.Errorf("generated id %q, handler saw %q", id, seen)
	}

	rr = serve(t, e, http.MethodGet, "/", http.Header{middleware.HeaderRequestID: {"dash-42"}})
	if got := rr.Header().Get(middleware.HeaderRequestID); got != "dash-42" {
		t.Errorf("client id not echoed, got %q", got)
	}
}

func corsEngine(cfg middleware.CORSConfig) *gin.Engine {
	e := gin.New()
	e.Use(middleware.CORS(cfg))
	e.GET("/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	return e
}

func TestCORS(t *testing.T) {
	e := corsEngine(middleware.CORSConfig{
		AllowedOrigins:   []string{"http://dashboard.local"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept"},
		AllowCredentials: true,
	})

	rr := serve(t, e, http.MethodGet, "/status", http.Header{"Origin": {"http://dashboard.local"}})
	h := rr.Header()
	if h.Get("Access-Control-Allow-Origin") != "http://dashboard.local" ||
		h.Get("Access-Control-Allow-Methods") != "GET, OPTIONS" ||
		h.Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("headers = %v", h)
	}

	rr = serve(t, e, http.MethodGet, "/status", http.Header{"Origin": {"https://elsewhere.example"}})
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" || rr.Code != http.StatusOK {
		t.Errorf("foreign origin: %d %q", rr.Code, got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	e := corsEngine(middleware.CORSConfig{AllowedOrigins: []string{"*"}})

	// No OPTIONS route exists: the preflight is answered by the middleware.
	rr := serve(t, e, http.MethodOptions, "/status", http.Header{"Origin": {"https://app.example"}})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("wildcard must echo the origin, got %q", got)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "mediaplay", &buf)

	e := gin.New()
	e.Use(middleware.RequestID(), middleware.RequestLogger(log))
	e.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })
	e.GET("/status", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(t, e, http.MethodGet, "/readyz", nil)
	if buf.Len() != 0 {
		t.Errorf("successful probes must not be logged: %s", buf.String())
	}

	serve(t, e, http.MethodGet, "/status", http.Header{middleware.HeaderRequestID: {"r-1"}})
	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"path":"/status"`, `"status":404`, `"request_id":"r-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q lacks %s", out, want)
		}
	}
}
