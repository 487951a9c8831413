package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Krimson/ecg-glove/internal/record"
	"github.com/Krimson/ecg-glove/pkg/models"
)

// Экспорт записей анализа в CSV для внешних систем и архива.

var resultsHeader = []string{
	"record_id", "created_at", "analysis_status", "analysis_lead", "beat_count",
	"heart_rate_bpm", "rr_interval_ms", "rr_undoubled_ms",
	"p_duration_ms", "pr_interval_ms", "qrs_duration_ms", "qt_interval_ms", "qtcb_ms",
	"p_axis_deg", "qrs_axis_deg", "t_axis_deg",
}

// WriteResults записывает вектор результатов одной записи
func WriteResults(w io.Writer, rec *record.Record) error {
	if rec.Results == nil {
		return fmt.Errorf("record has no results: %s", rec.ID)
	}
	return writeResultRows(w, []*record.Record{rec})
}

// WriteResultsList записывает векторы результатов нескольких записей,
// записи без результатов пропускаются
func WriteResultsList(w io.Writer, recs []*record.Record) error {
	withResults := make([]*record.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Results != nil {
			withResults = append(withResults, rec)
		}
	}
	return writeResultRows(w, withResults)
}

func writeResultRows(w io.Writer, recs []*record.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(resultsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range recs {
		res := rec.Results
		row := []string{
			rec.ID,
			rec.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(rec.AnalysisStatus),
			string(res.AnalysisLead),
			strconv.Itoa(res.BeatCount),
			formatFloat(res.HeartRateBPM),
			formatFloat(res.RRIntervalMS),
			formatFloat(res.RRUndoubledMS),
			strconv.Itoa(res.PDurationMS),
			strconv.Itoa(res.PRIntervalMS),
			strconv.Itoa(res.QRSDurationMS),
			strconv.Itoa(res.QTIntervalMS),
			strconv.Itoa(res.QTcBMS),
			strconv.Itoa(res.PAxisDeg),
			strconv.Itoa(res.QRSAxisDeg),
			strconv.Itoa(res.TAxisDeg),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteWaveforms записывает волновые формы посэмплово, по колонке на
// отведение в порядке каналов устройства, затем расчетные
func WriteWaveforms(w io.Writer, data *record.WaveformData) error {
	order := make([]models.Lead, 0, len(data.Leads))
	for _, lead := range append(append([]models.Lead{}, models.CapturedLeads...), models.DerivedLeads...) {
		if _, ok := data.Leads[lead]; ok {
			order = append(order, lead)
		}
	}
	if len(order) == 0 {
		return fmt.Errorf("no waveforms to export for record: %s", data.RecordID)
	}

	cw := csv.NewWriter(w)

	header := make([]string, 0, len(order)+1)
	header = append(header, "sample_index")
	for _, lead := range order {
		header = append(header, string(lead))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	length := 0
	for _, lead := range order {
		if n := len(data.Leads[lead]); n > length {
			length = n
		}
	}

	row := make([]string, len(order)+1)
	for i := 0; i < length; i++ {
		row[0] = strconv.Itoa(i)
		for j, lead := range order {
			samples := data.Leads[lead]
			if i < len(samples) {
				row[j+1] = formatFloat(samples[i])
			} else {
				row[j+1] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
