package filter

import (
	"math"
	"testing"
)

func TestFilter_ZeroInZeroOut(t *testing.T) {
	filters := map[string]*Filter{
		"fir":        NewFIR([]float64{0.5, 0.25, 0.25}),
		"iir":        NewBaseline(Baseline05),
		"avg":        NewMovingAverage(16),
		"lowpass":    NewBandLowPass(),
		"highpass":   NewBandHighPass(),
		"derivative": NewDerivative(),
	}

	for name, f := range filters {
		for i := 0; i < 1000; i++ {
			if y := f.Process(0); y != 0 {
				t.Errorf("%s: expected 0 output for zero input at sample %d, got %v", name, i, y)
				break
			}
		}
	}
}

func TestMovingAverage_ImpulseResponse(t *testing.T) {
	f := NewMovingAverage(4)

	got := f.Apply([]float64{1, 0, 0, 0, 0, 0})
	want := []float64{0.25, 0.25, 0.25, 0.25, 0, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDerivative_Ramp(t *testing.T) {
	f := NewDerivative()

	// Первая разность линейного нарастания постоянна
	src := []float64{0, 2, 4, 6, 8, 10}
	got := f.Apply(src)
	for i := 1; i < len(got); i++ {
		if got[i] != 2 {
			t.Errorf("Sample %d: expected derivative 2, got %v", i, got[i])
		}
	}
}

func TestBaseline_RemovesDC(t *testing.T) {
	f := NewBaseline(Baseline05)

	// Постоянная составляющая должна подавляться
	var y float64
	for i := 0; i < 20000; i++ {
		y = f.Process(1000)
	}
	if math.Abs(y) > 1.0 {
		t.Errorf("Expected DC suppressed below 1.0 after settling, got %v", y)
	}
}

func TestApplyInPlace_Overwrites(t *testing.T) {
	f := NewMovingAverage(2)

	src := []float64{4, 4, 4}
	f.ApplyInPlace(src)
	want := []float64{2, 4, 4}
	for i := range want {
		if math.Abs(src[i]-want[i]) > 1e-12 {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], src[i])
		}
	}
}

func TestFilter_StatePersistsAcrossCalls(t *testing.T) {
	f := NewMovingAverage(4)

	f.Apply([]float64{4, 4})
	got := f.Process(4)
	// История не сбрасывается между вызовами: в окне уже три четверки
	if math.Abs(got-3) > 1e-12 {
		t.Errorf("Expected 3 with carried-over history, got %v", got)
	}
}
