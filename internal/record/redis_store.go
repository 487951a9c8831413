package record

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore реализует CacheStore для Redis (Infrastructure Layer)
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore создает новый экземпляр RedisStore
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// ===== Ключи Redis =====

func recordKey(recordID string) string {
	return fmt.Sprintf("record:%s:metadata", recordID)
}

func waveformsKey(recordID string) string {
	return fmt.Sprintf("record:%s:waveforms", recordID)
}

// ===== Управление записями =====

func (r *RedisStore) SetRecord(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return r.client.Set(ctx, recordKey(record.ID), data, 0).Err()
}

func (r *RedisStore) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	data, err := r.client.Get(ctx, recordKey(recordID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("record not found: %s", recordID)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &record, nil
}

func (r *RedisStore) DeleteRecord(ctx context.Context, recordID string) error {
	// Удаляем все ключи, связанные с записью
	pattern := fmt.Sprintf("record:%s:*", recordID)

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	pipe := r.client.Pipeline()

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// ===== Волновые формы =====

func (r *RedisStore) SetWaveforms(ctx context.Context, data *WaveformData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal waveforms: %w", err)
	}

	return r.client.Set(ctx, waveformsKey(data.RecordID), payload, 0).Err()
}

func (r *RedisStore) GetWaveforms(ctx context.Context, recordID string) (*WaveformData, error) {
	payload, err := r.client.Get(ctx, waveformsKey(recordID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("waveforms not found for record: %s", recordID)
		}
		return nil, fmt.Errorf("failed to get waveforms: %w", err)
	}

	var data WaveformData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waveforms: %w", err)
	}

	return &data, nil
}

// ===== Утилиты =====

func (r *RedisStore) RecordExists(ctx context.Context, recordID string) (bool, error) {
	count, err := r.client.Exists(ctx, recordKey(recordID)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RedisStore) SetRecordTTL(ctx context.Context, recordID string, ttl int) error {
	pattern := fmt.Sprintf("record:%s:*", recordID)
	duration := time.Duration(ttl) * time.Second

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	pipe := r.client.Pipeline()

	for iter.Next(ctx) {
		pipe.Expire(ctx, iter.Val(), duration)
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	_, err := pipe.Exec(ctx)
	return err
}
