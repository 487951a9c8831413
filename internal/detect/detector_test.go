package detect

import (
	"testing"
)

// spikeSignal строит нулевой сигнал с одиночными выбросами заданной амплитуды
func spikeSignal(length int, amplitude float64, positions ...int) []float64 {
	s := make([]float64, length)
	for _, p := range positions {
		s[p] = amplitude
	}
	return s
}

func TestDetect_IsolatedSpikes(t *testing.T) {
	positions := []int{300, 800, 1300, 1800, 2300}
	signal := spikeSignal(3000, 1000, positions...)

	beats, annotation, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(beats) != len(positions) {
		t.Fatalf("Expected %d beats, got %d", len(positions), len(beats))
	}

	for i, b := range beats {
		diff := b.SampleIndex - positions[i]
		if diff < -5 || diff > 5 {
			t.Errorf("Beat %d: expected position %d+-5, got %d", i, positions[i], b.SampleIndex)
		}
		if annotation[b.SampleIndex] != 1 {
			t.Errorf("Beat %d: expected annotation at %d", i, b.SampleIndex)
		}
	}

	// Маркеры строго возрастают
	for i := 1; i < len(beats); i++ {
		if beats[i].SampleIndex <= beats[i-1].SampleIndex {
			t.Errorf("Beat indices not strictly increasing: %d then %d",
				beats[i-1].SampleIndex, beats[i].SampleIndex)
		}
	}
}

func TestDetect_SubFloorSpikes(t *testing.T) {
	signal := spikeSignal(3000, 5, 300, 800, 1300)

	beats, _, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(beats) != 0 {
		t.Errorf("Expected 0 beats for sub-floor spikes, got %d", len(beats))
	}
}

func TestDetect_CloseSpikesMerge(t *testing.T) {
	// Два выброса ближе 100 сэмплов сливаются в больший
	signal := spikeSignal(2000, 800, 500)
	signal[560] = 1500

	beats, _, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(beats) != 1 {
		t.Fatalf("Expected 1 merged beat, got %d", len(beats))
	}
	if beats[0].SampleIndex != 560 {
		t.Errorf("Expected merged beat at larger spike 560, got %d", beats[0].SampleIndex)
	}
}

func TestDetect_EmptySignal(t *testing.T) {
	beats, annotation, err := New().Detect(nil)
	if err != nil {
		t.Fatalf("Detect failed on empty signal: %v", err)
	}
	if len(beats) != 0 || len(annotation) != 0 {
		t.Errorf("Expected no output for empty signal, got %d beats", len(beats))
	}
}

func TestDetect_AfterLongSilence(t *testing.T) {
	// Комплексы после паузы длиннее 1500 сэмплов все равно находятся
	positions := []int{300, 800, 2800, 3300, 3800, 4300}
	signal := spikeSignal(5000, 1000, positions...)

	beats, _, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(beats) != len(positions) {
		t.Errorf("Expected %d beats across the silence gap, got %d", len(positions), len(beats))
	}
}

func TestDetect_RecoversBeatsHiddenByElevatedThreshold(t *testing.T) {
	// Крупный комплекс задирает порог, и следующие мелкие комплексы не
	// проходят его. После 1500 сэмплов тишины поиск перечитывает
	// пропущенный участок с минимальным порогом и находит их все.
	signal := spikeSignal(3200, 400, 700, 1100, 1500, 1900, 2300, 2700)
	signal[300] = 2000

	beats, _, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	positions := []int{300, 700, 1100, 1500, 1900, 2300, 2700}
	if len(beats) != len(positions) {
		t.Fatalf("Expected %d beats including recovered ones, got %d", len(positions), len(beats))
	}
	for i, b := range beats {
		diff := b.SampleIndex - positions[i]
		if diff < -5 || diff > 5 {
			t.Errorf("Beat %d: expected position %d+-5, got %d", i, positions[i], b.SampleIndex)
		}
	}
}

func TestDetect_SecondElevatedThresholdGap(t *testing.T) {
	// Два крупных комплекса, каждый прячет за порогом свою серию мелких.
	// Перезапуск поиска взводится заново после подтвержденных комплексов,
	// поэтому восстанавливаются обе серии.
	signal := spikeSignal(4000, 400, 700, 1100, 1500, 2500, 2900)
	signal[300] = 2000
	signal[2100] = 2000

	beats, _, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	positions := []int{300, 700, 1100, 1500, 2100, 2500, 2900}
	if len(beats) != len(positions) {
		t.Fatalf("Expected %d beats across both gaps, got %d", len(positions), len(beats))
	}
	for i, b := range beats {
		diff := b.SampleIndex - positions[i]
		if diff < -5 || diff > 5 {
			t.Errorf("Beat %d: expected position %d+-5, got %d", i, positions[i], b.SampleIndex)
		}
	}
}

func TestDetect_NegativeExcursion(t *testing.T) {
	// Комплекс с доминирующим отрицательным отклонением локализуется
	// по наиболее отрицательному сэмплу
	signal := make([]float64, 2000)
	signal[600] = -1200

	beats, _, err := New().Detect(signal)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(beats) != 1 {
		t.Fatalf("Expected 1 beat, got %d", len(beats))
	}
	if beats[0].SampleIndex != 600 {
		t.Errorf("Expected beat at 600, got %d", beats[0].SampleIndex)
	}
}
