package analysis

import (
	"math"
	"testing"

	"github.com/Krimson/ecg-glove/internal/decoder"
	"github.com/Krimson/ecg-glove/pkg/models"
)

// addWave накладывает колоколообразную волну на сигнал
func addWave(sig []float64, center int, amplitude, sigma float64) {
	for i := range sig {
		z := float64(i-center) / sigma
		if z < -6 || z > 6 {
			continue
		}
		sig[i] += amplitude * math.Exp(-0.5*z*z)
	}
}

// ecgSignal строит синтетическое отведение с комплексами PQRST
// в заданных позициях R
func ecgSignal(length int, scale float64, beatCenters ...int) []float64 {
	s := make([]float64, length)
	for _, c := range beatCenters {
		addWave(s, c-70, 200*scale, 10)
		addWave(s, c-17, -300*scale, 3)
		addWave(s, c, 2000*scale, 4)
		addWave(s, c+17, -400*scale, 3)
		addWave(s, c+110, 400*scale, 15)
	}
	return s
}

// buildCapture кодирует два первичных отведения в поток пакетов перчатки.
// Длина сигналов должна быть кратна пяти.
func buildCapture(t *testing.T, leadI, leadII []float64) []byte {
	t.Helper()
	if len(leadI) != len(leadII) || len(leadI)%5 != 0 {
		t.Fatalf("Signal length must match and be a multiple of 5, got %d and %d", len(leadI), len(leadII))
	}

	var buf []byte
	for p := 0; p < len(leadI)/5; p++ {
		var frames [5][8]int16
		for f := 0; f < 5; f++ {
			s := 5*p + f
			frames[f][0] = int16(leadI[s])
			frames[f][1] = int16(leadII[s])
		}
		buf = append(buf, decoder.EncodeECGPacket(frames)...)
	}
	return buf
}

func TestAnalyze_EndToEnd(t *testing.T) {
	centers := []int{400, 900, 1400, 1900, 2400, 2900, 3400, 3900}
	leadI := ecgSignal(4500, 1, centers...)
	leadII := ecgSignal(4500, 2, centers...)

	out := New().Analyze(buildCapture(t, leadI, leadII))

	if out.Status != models.StatusOK {
		t.Fatalf("Expected status %d, got %d", models.StatusOK, out.Status)
	}
	if out.Results == nil {
		t.Fatal("Expected result vector for successful analysis")
	}
	res := out.Results

	if res.AnalysisLead != models.LeadII {
		t.Errorf("Expected lead II authoritative on tie, got %s", res.AnalysisLead)
	}
	if res.BeatCount != len(centers) {
		t.Errorf("Expected %d beats, got %d", len(centers), res.BeatCount)
	}

	if res.RRUndoubledMS < 950 || res.RRUndoubledMS > 1050 {
		t.Errorf("Expected undoubled RR near 1000 ms, got %v", res.RRUndoubledMS)
	}
	if math.Abs(res.RRIntervalMS-2*res.RRUndoubledMS) > 1e-9 {
		t.Errorf("Expected RR exactly double the undoubled variant: %v vs %v",
			res.RRIntervalMS, res.RRUndoubledMS)
	}
	if res.HeartRateBPM <= 0 {
		t.Errorf("Expected positive heart rate, got %v", res.HeartRateBPM)
	}

	if res.QRSDurationMS < 60 || res.QRSDurationMS > 200 {
		t.Errorf("Expected QRS in 60..200 ms, got %d", res.QRSDurationMS)
	}
	if res.QTcBMS < 0 {
		t.Errorf("Expected non-negative QTcB, got %d", res.QTcBMS)
	}

	for name, axis := range map[string]int{
		"P": res.PAxisDeg, "QRS": res.QRSAxisDeg, "T": res.TAxisDeg,
	} {
		if axis < -90 || axis > 90 {
			t.Errorf("Expected %s axis in [-90, 90], got %d", name, axis)
		}
	}

	// Волновые формы всех 12 отведений отдаются для отрисовки
	for _, ld := range append(append([]models.Lead{}, models.CapturedLeads...), models.DerivedLeads...) {
		if len(out.Waveforms[ld]) == 0 {
			t.Errorf("Expected waveform for lead %s", ld)
		}
	}
	if len(out.Beats[models.LeadII]) != len(centers) {
		t.Errorf("Expected %d beat markers on lead II, got %d", len(centers), len(out.Beats[models.LeadII]))
	}
}

func TestAnalyze_TooFewBeats(t *testing.T) {
	centers := []int{400, 900}
	leadI := ecgSignal(1500, 1, centers...)
	leadII := ecgSignal(1500, 2, centers...)

	out := New().Analyze(buildCapture(t, leadI, leadII))

	if out.Status != models.StatusLeadIIFewBeats {
		t.Fatalf("Expected status %d for too few beats, got %d", models.StatusLeadIIFewBeats, out.Status)
	}
	if out.Results != nil {
		t.Error("Expected no result vector on fatal status")
	}
	if len(out.Beats[models.LeadII]) != len(centers) {
		t.Errorf("Expected %d beat markers despite fatal status, got %d",
			len(centers), len(out.Beats[models.LeadII]))
	}
}

func TestAnalyze_EmptyCapture(t *testing.T) {
	out := New().Analyze(nil)

	if out.Status != models.StatusNoBeatsOnAnyLead {
		t.Fatalf("Expected status %d for empty capture, got %d", models.StatusNoBeatsOnAnyLead, out.Status)
	}
	if out.Results != nil {
		t.Error("Expected no result vector for empty capture")
	}
}

func TestRRStatistics_TrimsExtremes(t *testing.T) {
	// Интервалы 500, 500, 700, 300 сэмплов: после отброса крайних
	// остаются два по 500 -> 1000 мс без удвоения
	beats := []models.BeatMarker{
		{SampleIndex: 500}, {SampleIndex: 1000}, {SampleIndex: 1500},
		{SampleIndex: 2200}, {SampleIndex: 2500},
	}

	doubled, undoubled := rrStatistics(beats)
	if undoubled != 1000 {
		t.Errorf("Expected trimmed undoubled RR 1000 ms, got %v", undoubled)
	}
	if doubled != 2000 {
		t.Errorf("Expected doubled RR 2000 ms, got %v", doubled)
	}
}

func TestRRStatistics_TooFewBeats(t *testing.T) {
	doubled, undoubled := rrStatistics([]models.BeatMarker{{SampleIndex: 100}})
	if doubled != 0 || undoubled != 0 {
		t.Errorf("Expected zero RR for a single beat, got %v and %v", doubled, undoubled)
	}
}
