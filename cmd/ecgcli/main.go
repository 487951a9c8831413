package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Krimson/ecg-glove/internal/analysis"
	"github.com/Krimson/ecg-glove/internal/config"
	"github.com/Krimson/ecg-glove/internal/record"
	"github.com/Krimson/ecg-glove/internal/report"
	"github.com/Krimson/ecg-glove/pkg/models"
)

// Оффлайн-анализ файла захвата: читает бинарный поток перчатки,
// прогоняет конвейер и печатает вектор результатов.

func main() {
	inputPath := flag.String("input", "", "Path to capture file (required)")
	resultsCSV := flag.String("results-csv", "", "Optional path for results CSV export")
	waveformsCSV := flag.String("waveforms-csv", "", "Optional path for waveforms CSV export")
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	capture, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to read capture file: %v", err)
	}
	log.Printf("[INFO] Loaded capture: file=%s bytes=%d", *inputPath, len(capture))

	output := analysis.NewWithBaseline(cfg.BaselineVariant()).Analyze(capture)

	rec := &record.Record{
		ID:             uuid.New().String(),
		Status:         record.RecordStatusCompleted,
		AnalysisStatus: output.Status,
		CreatedAt:      time.Now(),
		CaptureBytes:   int64(len(capture)),
		Results:        output.Results,
		Metadata:       record.Metadata{CreatedFrom: "cli"},
	}
	if output.Status != models.StatusOK {
		rec.Status = record.RecordStatusFailed
	}

	printed, err := json.MarshalIndent(map[string]interface{}{
		"record_id": rec.ID,
		"status":    output.Status,
		"results":   output.Results,
	}, "", "  ")
	if err != nil {
		log.Fatalf("[FATAL] Failed to marshal results: %v", err)
	}
	fmt.Println(string(printed))

	if output.Status != models.StatusOK {
		log.Printf("[WARN] Analysis finished with fatal status: %d", output.Status)
		os.Exit(1)
	}

	if *resultsCSV != "" {
		if err := exportResults(*resultsCSV, rec); err != nil {
			log.Fatalf("[FATAL] Failed to export results: %v", err)
		}
		log.Printf("[INFO] Results exported: file=%s", *resultsCSV)
	}

	if *waveformsCSV != "" {
		data := &record.WaveformData{
			RecordID: rec.ID,
			Leads:    output.Waveforms,
			Beats:    output.Beats,
		}
		if err := exportWaveforms(*waveformsCSV, data); err != nil {
			log.Fatalf("[FATAL] Failed to export waveforms: %v", err)
		}
		log.Printf("[INFO] Waveforms exported: file=%s", *waveformsCSV)
	}
}

func exportResults(path string, rec *record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	return report.WriteResults(f, rec)
}

func exportWaveforms(path string, data *record.WaveformData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	return report.WriteWaveforms(f, data)
}
