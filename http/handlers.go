package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"strokeserve/ml"
	"strokeserve/monitoring"
	"strokeserve/report"
	"strokeserve/service"
)

// Predictor 预测服务
type Predictor interface {
	Predict(modelKey string, in ml.Input) (service.Prediction, error)
	Models() []string
	Schema(modelKey string) (*ml.FeatureSchema, error)
}

// Handlers 路由处理器
type Handlers struct {
	predictor Predictor
	accuracy  report.Source
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

type failure struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type predictResponse struct {
	Status bool        `json:"status"`
	Model  string      `json:"model"`
	Label  int         `json:"hasil_prediksi"`
	Input  interface{} `json:"input,omitempty"`
}

type accuracyResponse struct {
	Status   bool    `json:"status"`
	Model    string  `json:"model"`
	Accuracy float64 `json:"accuracy"`
}

type modelInfo struct {
	Model    string        `json:"model"`
	Features []featureInfo `json:"features"`
}

type featureInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Values []string `json:"values,omitempty"`
}

// RegisterHandlers 注册路由
func RegisterHandlers(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /{$}", h.handleHealth)
	mux.HandleFunc("POST /predict", h.predictWith(service.RandomForest))
	mux.HandleFunc("POST /xgboost", h.predictWith(service.XGBoost))
	mux.HandleFunc("POST /predict/{model}", h.handlePredict)
	mux.HandleFunc("GET /accuracy/{model}", h.handleAccuracy)
	mux.HandleFunc("GET /models", h.handleModels)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Stroke Prediction API running",
	})
}

func (h *Handlers) predictWith(modelKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.predict(w, r, modelKey)
	}
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, modelSlug(r.PathValue("model")))
}

func (h *Handlers) predict(w http.ResponseWriter, r *http.Request, modelKey string) {
	in, echo, err := decodeRecord(r)
	if err == nil {
		var prediction service.Prediction
		prediction, err = h.predictor.Predict(modelKey, in)
		if err == nil {
			h.metrics.IncrCounter("strokeserve_predictions_total", 1, map[string]string{"model": prediction.Model, "outcome": "ok"})
			writeJSON(w, http.StatusOK, predictResponse{
				Status: true,
				Model:  prediction.Model,
				Label:  prediction.Label,
				Input:  echo,
			})
			return
		}
	}
	h.metrics.IncrCounter("strokeserve_predictions_total", 1, map[string]string{"model": h.modelLabel(modelKey), "outcome": ml.ErrorKind(err)})
	h.fail(w, r, err)
}

// modelLabel keeps the metrics label set bounded to registered models.
func (h *Handlers) modelLabel(modelKey string) string {
	if _, err := h.predictor.Schema(modelKey); err != nil {
		return "unknown"
	}
	return modelKey
}

func (h *Handlers) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	modelKey := modelSlug(r.PathValue("model"))
	accuracy, err := h.accuracy.Accuracy(modelKey)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accuracyResponse{Status: true, Model: modelKey, Accuracy: accuracy})
}

func (h *Handlers) handleModels(w http.ResponseWriter, r *http.Request) {
	models := make([]modelInfo, 0)
	for _, key := range h.predictor.Models() {
		schema, err := h.predictor.Schema(key)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		info := modelInfo{Model: key, Features: make([]featureInfo, schema.Len())}
		for i := 0; i < schema.Len(); i++ {
			spec := schema.Spec(i)
			info.Features[i] = featureInfo{Name: spec.Name, Kind: string(spec.Kind)}
			if spec.Encoding != nil {
				info.Features[i].Values = spec.Encoding.Labels()
			}
		}
		models = append(models, info)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"models": models,
	})
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprint(w, h.metrics.ExportPrometheus())
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, failure{Status: false, Message: err.Error(), Error: ml.ErrorKind(err)})
}

// statusFor separates caller mistakes from server-side failures.
func statusFor(err error) int {
	switch {
	case ml.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrUnknownModel):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeRecord accepts a flat record, {"fitur": record}, {"fitur": [values]}
// or a bare array of values. It also returns the record as received so it can
// be echoed back.
func decodeRecord(r *http.Request) (ml.Input, interface{}, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var body interface{}
	if err := decoder.Decode(&body); err != nil {
		return ml.Input{}, nil, fmt.Errorf("%w: invalid JSON body: %v", ml.ErrMalformedRecord, err)
	}

	if object, ok := body.(map[string]interface{}); ok {
		if fitur, ok := object["fitur"]; ok {
			body = fitur
		}
	}
	switch record := body.(type) {
	case map[string]interface{}:
		return ml.NamedInput(record), record, nil
	case []interface{}:
		return ml.PositionalInput(record), record, nil
	default:
		return ml.Input{}, nil, fmt.Errorf("%w: expected a JSON object or array", ml.ErrMalformedRecord)
	}
}

// modelSlug maps URL slugs such as "random-forest" onto model keys.
func modelSlug(slug string) string {
	return strings.ReplaceAll(slug, "-", "_")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
