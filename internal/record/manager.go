package record

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Krimson/ecg-glove/pkg/models"
)

// Analyzer запускает конвейер анализа на буфере захвата
type Analyzer interface {
	Analyze(capture []byte) *models.AnalysisOutput
}

// Manager управляет записями анализов (Application Layer).
// Чтение идет по схеме cache-aside: Redis, затем PostgreSQL с прогревом кэша.
type Manager struct {
	cache      CacheStore
	repository Repository
	analyzer   Analyzer

	ttlSeconds int
}

// NewManager создает новый менеджер записей
func NewManager(cache CacheStore, repository Repository, analyzer Analyzer, ttlSeconds int) *Manager {
	return &Manager{
		cache:      cache,
		repository: repository,
		analyzer:   analyzer,
		ttlSeconds: ttlSeconds,
	}
}

// CreateFromCapture анализирует буфер захвата и сохраняет результат.
// Запись создается и при фатальном статусе анализа: отрицательный код
// важен для истории, но вектор результатов в ней отсутствует.
func (m *Manager) CreateFromCapture(ctx context.Context, capture []byte, req *CreateRecordRequest) (*Record, *models.AnalysisOutput, error) {
	output := m.analyzer.Analyze(capture)

	record := &Record{
		ID:             uuid.New().String(),
		Status:         RecordStatusCompleted,
		AnalysisStatus: output.Status,
		CreatedAt:      time.Now(),
		CaptureBytes:   int64(len(capture)),
		Results:        output.Results,
		Metadata: Metadata{
			PatientID:   req.PatientID,
			DeviceID:    req.DeviceID,
			OperatorID:  req.OperatorID,
			Notes:       req.Notes,
			CreatedFrom: req.CreatedFrom,
		},
	}
	if output.Status != models.StatusOK {
		record.Status = RecordStatusFailed
	}

	if err := m.repository.CreateRecord(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to store record: %w", err)
	}

	waveforms := &WaveformData{
		RecordID: record.ID,
		Leads:    output.Waveforms,
		Beats:    output.Beats,
	}
	if err := m.repository.SaveWaveforms(ctx, waveforms); err != nil {
		log.Printf("[WARN] Failed to store waveforms: record=%s err=%v", record.ID, err)
	}

	m.cacheRecord(ctx, record, waveforms)

	log.Printf("[RECORD] Created record: id=%s status=%s analysis_status=%d capture_bytes=%d",
		record.ID, record.Status, record.AnalysisStatus, record.CaptureBytes)
	return record, output, nil
}

// GetRecord получает запись по ID
func (m *Manager) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	if record, err := m.cache.GetRecord(ctx, recordID); err == nil {
		return record, nil
	}

	record, err := m.repository.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if err := m.cache.SetRecord(ctx, record); err != nil {
		log.Printf("[WARN] Failed to cache record: %v", err)
	}
	return record, nil
}

// GetWaveforms получает волновые формы записи
func (m *Manager) GetWaveforms(ctx context.Context, recordID string) (*WaveformData, error) {
	if data, err := m.cache.GetWaveforms(ctx, recordID); err == nil {
		return data, nil
	}

	data, err := m.repository.GetWaveforms(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if err := m.cache.SetWaveforms(ctx, data); err != nil {
		log.Printf("[WARN] Failed to cache waveforms: %v", err)
	}
	return data, nil
}

// ListRecords возвращает список записей
func (m *Manager) ListRecords(ctx context.Context, limit, offset int) ([]*Record, error) {
	return m.repository.ListRecords(ctx, limit, offset)
}

// DeleteRecord удаляет запись
func (m *Manager) DeleteRecord(ctx context.Context, recordID string) error {
	if err := m.cache.DeleteRecord(ctx, recordID); err != nil {
		log.Printf("[WARN] Failed to delete record from cache: %v", err)
	}

	if err := m.repository.DeleteRecord(ctx, recordID); err != nil {
		return fmt.Errorf("failed to delete record from database: %w", err)
	}

	log.Printf("[RECORD] Deleted record: %s", recordID)
	return nil
}

// cacheRecord кладет запись и формы в кэш с TTL, сбои не фатальны
func (m *Manager) cacheRecord(ctx context.Context, record *Record, waveforms *WaveformData) {
	if err := m.cache.SetRecord(ctx, record); err != nil {
		log.Printf("[WARN] Failed to cache record: %v", err)
		return
	}
	if err := m.cache.SetWaveforms(ctx, waveforms); err != nil {
		log.Printf("[WARN] Failed to cache waveforms: %v", err)
	}
	if m.ttlSeconds > 0 {
		if err := m.cache.SetRecordTTL(ctx, record.ID, m.ttlSeconds); err != nil {
			log.Printf("[WARN] Failed to set record TTL: %v", err)
		}
	}
}
