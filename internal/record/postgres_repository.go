package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRepository реализует Repository для PostgreSQL (Infrastructure Layer)
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository создает новый экземпляр PostgresRepository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// NewPostgresRepositoryFromDSN создает репозиторий из строки подключения
func NewPostgresRepositoryFromDSN(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Настройки пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Close закрывает соединение с БД
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// ===== Управление записями =====

func (r *PostgresRepository) CreateRecord(ctx context.Context, record *Record) error {
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var resultsJSON []byte
	if record.Results != nil {
		resultsJSON, err = json.Marshal(record.Results)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
	}

	query := `
		INSERT INTO ecg_records (id, status, analysis_status, created_at, capture_bytes, results, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.Status,
		record.AnalysisStatus,
		record.CreatedAt,
		record.CaptureBytes,
		resultsJSON,
		metadataJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	query := `
		SELECT id, status, analysis_status, created_at, capture_bytes, results, metadata
		FROM ecg_records
		WHERE id = $1
	`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, recordID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("record not found: %s", recordID)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) ListRecords(ctx context.Context, limit, offset int) ([]*Record, error) {
	query := `
		SELECT id, status, analysis_status, created_at, capture_bytes, results, metadata
		FROM ecg_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			continue // Пропускаем поврежденные записи
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *PostgresRepository) DeleteRecord(ctx context.Context, recordID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queries := []string{
		"DELETE FROM ecg_waveforms WHERE record_id = $1",
		"DELETE FROM ecg_records WHERE id = $1",
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query, recordID); err != nil {
			return fmt.Errorf("failed to delete record data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ===== Волновые формы =====

func (r *PostgresRepository) SaveWaveforms(ctx context.Context, data *WaveformData) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal waveforms: %w", err)
	}

	query := `
		INSERT INTO ecg_waveforms (record_id, data, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_id) DO UPDATE SET
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at
	`

	if _, err := r.db.ExecContext(ctx, query, data.RecordID, dataJSON, time.Now()); err != nil {
		return fmt.Errorf("failed to save waveforms: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetWaveforms(ctx context.Context, recordID string) (*WaveformData, error) {
	query := `
		SELECT data
		FROM ecg_waveforms
		WHERE record_id = $1
	`

	var dataJSON []byte
	err := r.db.QueryRowContext(ctx, query, recordID).Scan(&dataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("waveforms not found for record: %s", recordID)
		}
		return nil, fmt.Errorf("failed to get waveforms: %w", err)
	}

	var data WaveformData
	if err := json.Unmarshal(dataJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waveforms: %w", err)
	}

	return &data, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var record Record
	var resultsJSON, metadataJSON []byte

	err := row.Scan(
		&record.ID,
		&record.Status,
		&record.AnalysisStatus,
		&record.CreatedAt,
		&record.CaptureBytes,
		&resultsJSON,
		&metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &record.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &record, nil
}
