package record

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Krimson/ecg-glove/pkg/models"
)

// maxCaptureBytes ограничивает размер загружаемого захвата
const maxCaptureBytes = 64 << 20

// Broadcaster рассылает завершенные анализы подписчикам визуализации
type Broadcaster interface {
	BroadcastAnalysis(record *Record, output *models.AnalysisOutput)
}

// HTTPHandler обрабатывает HTTP запросы для записей анализов (Presentation Layer)
type HTTPHandler struct {
	manager     *Manager
	broadcaster Broadcaster
}

// NewHTTPHandler создает новый HTTP обработчик.
// broadcaster может быть nil, тогда рассылка не выполняется.
func NewHTTPHandler(manager *Manager, broadcaster Broadcaster) *HTTPHandler {
	return &HTTPHandler{
		manager:     manager,
		broadcaster: broadcaster,
	}
}

// RegisterRoutes регистрирует маршруты в роутере
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/analyses").Subrouter()

	api.HandleFunc("", h.CreateAnalysis).Methods("POST")
	api.HandleFunc("", h.ListAnalyses).Methods("GET")
	api.HandleFunc("/{id}", h.GetAnalysis).Methods("GET")
	api.HandleFunc("/{id}/waveforms", h.GetWaveforms).Methods("GET")
	api.HandleFunc("/{id}", h.DeleteAnalysis).Methods("DELETE")

	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
}

// CreateAnalysis принимает буфер захвата и запускает анализ.
// POST /api/analyses
// Захват передается либо multipart-полем "capture", либо сырым телом запроса.
func (h *HTTPHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	capture, err := readCapture(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read capture data")
		return
	}
	if len(capture) == 0 {
		respondError(w, http.StatusBadRequest, "Empty capture data")
		return
	}

	req := &CreateRecordRequest{
		PatientID:   r.FormValue("patient_id"),
		DeviceID:    r.FormValue("device_id"),
		OperatorID:  r.FormValue("operator_id"),
		Notes:       r.FormValue("notes"),
		CreatedFrom: "web",
	}

	record, output, err := h.manager.CreateFromCapture(r.Context(), capture, req)
	if err != nil {
		log.Printf("[ERROR] Failed to create analysis: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create analysis")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastAnalysis(record, output)
	}

	respondJSON(w, http.StatusCreated, RecordResponse{Record: record})
}

// ListAnalyses возвращает список записей
// GET /api/analyses?limit=50&offset=0
func (h *HTTPHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := getQueryInt(r, "limit", 50)
	offset := getQueryInt(r, "offset", 0)

	records, err := h.manager.ListRecords(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] Failed to list analyses: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"limit":   limit,
		"offset":  offset,
		"count":   len(records),
	})
}

// GetAnalysis получает информацию о записи
// GET /api/analyses/{id}
func (h *HTTPHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["id"]

	record, err := h.manager.GetRecord(r.Context(), recordID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Analysis not found")
		return
	}

	respondJSON(w, http.StatusOK, RecordResponse{Record: record})
}

// GetWaveforms получает волновые формы записи
// GET /api/analyses/{id}/waveforms
func (h *HTTPHandler) GetWaveforms(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["id"]

	data, err := h.manager.GetWaveforms(r.Context(), recordID)
	if err != nil {
		log.Printf("[ERROR] Failed to get waveforms %s: %v", recordID, err)
		respondError(w, http.StatusNotFound, "Waveforms not found")
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// DeleteAnalysis удаляет запись
// DELETE /api/analyses/{id}
func (h *HTTPHandler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["id"]

	if err := h.manager.DeleteRecord(r.Context(), recordID); err != nil {
		log.Printf("[ERROR] Failed to delete analysis %s: %v", recordID, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Analysis deleted successfully",
		"record_id": recordID,
	})
}

// Healthz проверяет живость сервиса
// GET /healthz
func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readCapture извлекает байты захвата из multipart-поля или тела запроса
func readCapture(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxCaptureBytes)

	if err := r.ParseMultipartForm(maxCaptureBytes); err == nil {
		file, _, err := r.FormFile("capture")
		if err == nil {
			defer file.Close()
			return io.ReadAll(file)
		}
	}

	return io.ReadAll(r.Body)
}

// ===== Утилиты =====

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] Failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}

func getQueryInt(r *http.Request, key string, defaultValue int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
