package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"icu-monitor/internal/imaging"
	"icu-monitor/internal/metrics"
	"icu-monitor/internal/prediction"
)

// multipart 预留的表单字段开销
const uploadOverhead = 1 << 20

const msgInvalidImage = "Invalid image file. Please upload a valid image (JPEG, PNG) under 10MB."

// PredictionHandler 创面图像病症分类 / 愈合预测
type PredictionHandler struct {
	disease *prediction.DiseasePredictor
	wound   *prediction.WoundPredictor
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewPredictionHandler(disease *prediction.DiseasePredictor, wound *prediction.WoundPredictor, m *metrics.Metrics, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{disease: disease, wound: wound, metrics: m, logger: logger}
}

// ServeHTTP /api/disease-predict、/api/wound-predict 及两个 model-status
func (h *PredictionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch path {
	case "/api/disease-predict", "/api/wound-predict":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.predict(w, r, path == "/api/wound-predict")
	case "/api/disease-model-status":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, Ok(h.disease.Status()))
	case "/api/wound-model-status":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, Ok(h.wound.Status()))
	default:
		http.NotFound(w, r)
	}
}

func (h *PredictionHandler) predict(w http.ResponseWriter, r *http.Request, wound bool) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxFileSize+uploadOverhead)
	if err := r.ParseMultipartForm(imaging.MaxFileSize); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	age, err := strconv.Atoi(strings.TrimSpace(r.FormValue("patient_age")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("patient_age must be an integer"))
		return
	}
	if age < 1 || age > 120 {
		writeJSON(w, http.StatusBadRequest, Fail("Patient age must be between 1 and 120 years"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("file is required"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, imaging.MaxFileSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read upload: "+err.Error()))
		return
	}

	if err := imaging.Validate(content, header.Filename); err != nil {
		h.logger.Debug("Rejected upload", zap.String("filename", header.Filename), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Fail(msgInvalidImage))
		return
	}
	tensor, err := imaging.Preprocess(content)
	if err != nil {
		h.logger.Error("Preprocess image failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Failed to process image"))
		return
	}
	info := imaging.Describe(content)

	if wound {
		res, err := h.wound.Predict(tensor)
		if err != nil {
			h.modelError(w, "Wound prediction model could not be loaded", err)
			return
		}
		res.ImageInfo, res.PatientAge = &info, age
		h.metrics.ObservePrediction("wound", res.ModelUsed)
		writeJSON(w, http.StatusOK, Ok(res))
		return
	}

	res, err := h.disease.Predict(tensor, age)
	if err != nil {
		h.modelError(w, "Disease prediction model could not be loaded", err)
		return
	}
	res.ImageInfo, res.PatientAge = &info, age
	h.metrics.ObservePrediction("disease", res.ModelUsed)
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *PredictionHandler) modelError(w http.ResponseWriter, msg string, err error) {
	if !errors.Is(err, prediction.ErrModelNotLoaded) {
		msg = "Prediction failed"
	}
	h.logger.Error(msg, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Fail(msg))
}
