package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/Krimson/ecg-glove/internal/record"
	"github.com/Krimson/ecg-glove/pkg/models"
)

func sampleRecord() *record.Record {
	return &record.Record{
		ID:             "rec-42",
		Status:         record.RecordStatusCompleted,
		AnalysisStatus: models.StatusOK,
		CreatedAt:      time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Results: &models.ResultVector{
			PDurationMS:   68,
			PRIntervalMS:  142,
			QRSDurationMS: 88,
			QTIntervalMS:  306,
			QTcBMS:        342,
			QRSAxisDeg:    56,
			RRIntervalMS:  2000,
			RRUndoubledMS: 1000,
			HeartRateBPM:  30,
			BeatCount:     8,
			AnalysisLead:  models.LeadII,
		},
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleRecord()); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected header and one row, got %d rows", len(rows))
	}
	if len(rows[0]) != len(resultsHeader) {
		t.Errorf("Expected %d columns, got %d", len(resultsHeader), len(rows[0]))
	}

	row := rows[1]
	if row[0] != "rec-42" {
		t.Errorf("Expected record id rec-42, got %s", row[0])
	}
	if row[3] != "II" {
		t.Errorf("Expected analysis lead II, got %s", row[3])
	}
	if row[10] != "88" {
		t.Errorf("Expected QRS 88, got %s", row[10])
	}
}

func TestWriteResults_NoResults(t *testing.T) {
	rec := sampleRecord()
	rec.Results = nil

	var buf bytes.Buffer
	if err := WriteResults(&buf, rec); err == nil {
		t.Error("Expected error for record without results")
	}
}

func TestWriteResultsList_SkipsFailed(t *testing.T) {
	failed := sampleRecord()
	failed.ID = "rec-failed"
	failed.Results = nil

	var buf bytes.Buffer
	if err := WriteResultsList(&buf, []*record.Record{sampleRecord(), failed}); err != nil {
		t.Fatalf("WriteResultsList failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected header and one row, got %d rows", len(rows))
	}
	if strings.Contains(buf.String(), "rec-failed") {
		t.Error("Expected failed record to be skipped")
	}
}

func TestWriteWaveforms(t *testing.T) {
	data := &record.WaveformData{
		RecordID: "rec-42",
		Leads: models.LeadSet{
			models.LeadI:   {1.5, 2, 3},
			models.LeadII:  {3, 4, 5},
			models.LeadIII: {1.5, 2},
		},
	}

	var buf bytes.Buffer
	if err := WriteWaveforms(&buf, data); err != nil {
		t.Fatalf("WriteWaveforms failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("Expected header and 3 sample rows, got %d rows", len(rows))
	}

	expectedHeader := []string{"sample_index", "I", "II", "III"}
	for i, col := range expectedHeader {
		if rows[0][i] != col {
			t.Errorf("Expected header column %d = %s, got %s", i, col, rows[0][i])
		}
	}

	if rows[1][1] != "1.5" {
		t.Errorf("Expected lead I sample 0 = 1.5, got %s", rows[1][1])
	}
	// Короткое отведение дополняется пустыми ячейками
	if rows[3][3] != "" {
		t.Errorf("Expected empty cell for missing sample, got %q", rows[3][3])
	}
}

func TestWriteWaveforms_Empty(t *testing.T) {
	data := &record.WaveformData{RecordID: "rec-0", Leads: models.LeadSet{}}

	var buf bytes.Buffer
	if err := WriteWaveforms(&buf, data); err == nil {
		t.Error("Expected error for empty lead set")
	}
}
