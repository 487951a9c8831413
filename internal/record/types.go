package record

import (
	"time"

	"github.com/Krimson/ecg-glove/pkg/models"
)

// RecordStatus представляет статус записи анализа
type RecordStatus string

const (
	RecordStatusCompleted RecordStatus = "COMPLETED"
	RecordStatusFailed    RecordStatus = "FAILED"
)

// Record представляет одну запись анализа захвата
type Record struct {
	ID             string               `json:"id"`
	Status         RecordStatus         `json:"status"`
	AnalysisStatus int                  `json:"analysis_status"`
	CreatedAt      time.Time            `json:"created_at"`
	CaptureBytes   int64                `json:"capture_bytes"`
	Results        *models.ResultVector `json:"results,omitempty"`
	Metadata       Metadata             `json:"metadata,omitempty"`
}

// Metadata содержит дополнительную информацию о записи
type Metadata struct {
	PatientID   string `json:"patient_id,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
	OperatorID  string `json:"operator_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedFrom string `json:"created_from,omitempty"` // "web", "cli", "emulator"
}

// WaveformData представляет волновые формы и маркеры комплексов одной записи
type WaveformData struct {
	RecordID string                              `json:"record_id"`
	Leads    models.LeadSet                      `json:"leads"`
	Beats    map[models.Lead][]models.BeatMarker `json:"beats,omitempty"`
}

// CreateRecordRequest представляет метаданные, сопровождающие загрузку захвата
type CreateRecordRequest struct {
	PatientID   string `json:"patient_id,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
	OperatorID  string `json:"operator_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedFrom string `json:"created_from,omitempty"`
}

// RecordResponse представляет ответ с информацией о записи
type RecordResponse struct {
	Record *Record `json:"record"`
}
