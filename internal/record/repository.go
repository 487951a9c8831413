package record

import (
	"context"
)

// Repository определяет интерфейс для работы с хранилищем записей (Domain Layer)
type Repository interface {
	// Управление записями
	CreateRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, recordID string) (*Record, error)
	ListRecords(ctx context.Context, limit, offset int) ([]*Record, error)
	DeleteRecord(ctx context.Context, recordID string) error

	// Волновые формы
	SaveWaveforms(ctx context.Context, data *WaveformData) error
	GetWaveforms(ctx context.Context, recordID string) (*WaveformData, error)
}

// CacheStore определяет интерфейс для работы с кэшем (Redis)
type CacheStore interface {
	SetRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, recordID string) (*Record, error)
	DeleteRecord(ctx context.Context, recordID string) error

	SetWaveforms(ctx context.Context, data *WaveformData) error
	GetWaveforms(ctx context.Context, recordID string) (*WaveformData, error)

	// Утилиты
	RecordExists(ctx context.Context, recordID string) (bool, error)
	SetRecordTTL(ctx context.Context, recordID string, ttl int) error
}
