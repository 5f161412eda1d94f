package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"strokeserve/ml"
	"strokeserve/monitoring"
	"strokeserve/service"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("expected POST to be allowed, got %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSMiddlewareExplicitOrigins(t *testing.T) {
	handler := CORSMiddleware([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected echoed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":false`) {
		t.Fatalf("expected failure body, got %s", rr.Body.String())
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	handler, _ := newTestHandler(t)
	big := `{"gender": "` + strings.Repeat("x", 2<<20) + `"}`

	rr := do(handler, http.MethodPost, "/predict", big)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rr.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(mark("a"), mark("b"), mark("c"))(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, "") != "abc" {
		t.Fatalf("expected abc, got %v", order)
	}
}

type panickingPredictor struct{}

func (panickingPredictor) Predict(string, ml.Input) (service.Prediction, error) {
	panic("backend exploded")
}

func (panickingPredictor) Models() []string { return []string{service.RandomForest} }

func (panickingPredictor) Schema(string) (*ml.FeatureSchema, error) { return ml.StrokeSchema(), nil }

func TestPanicLoggedWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	metrics := monitoring.NewMetricsCollector()
	handler := NewHandler(DefaultServerConfig(), Dependencies{
		Predictor: panickingPredictor{},
		Accuracy:  accuracyTable{},
		Logger:    zap.New(core),
		Metrics:   metrics,
	})

	rr := do(handler, http.MethodPost, "/predict", strokeRecord)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	entries := logs.FilterMessage("panic recovered").All()
	if len(entries) != 1 {
		t.Fatalf("expected one panic log, got %d", len(entries))
	}
	requestID, _ := entries[0].ContextMap()["request_id"].(string)
	if requestID == "" || requestID != rr.Header().Get("X-Request-ID") {
		t.Fatalf("expected request id %q in panic log, got %q", rr.Header().Get("X-Request-ID"), requestID)
	}

	metric, ok := metrics.Get("strokeserve_http_requests_total", map[string]string{"method": "POST", "status": "500"})
	if !ok || metric.Value != 1 {
		t.Fatalf("expected the panicked request to be counted, got %+v", metric)
	}
}
