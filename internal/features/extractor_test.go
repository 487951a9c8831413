package features

import (
	"math"
	"testing"
)

// syntheticBeat строит реалистичный шаблон комплекса на расширенном окне:
// P-зубец на 80, Q-провал на 133, R-пик на 150, S-провал на 167, T-зубец на 260
func syntheticBeat() []float64 {
	w := make([]float64, 400)
	add := func(center int, amplitude, sigma float64) {
		for i := range w {
			z := float64(i-center) / sigma
			w[i] += amplitude * math.Exp(-0.5*z*z)
		}
	}
	add(80, 120, 10)   // P
	add(133, -150, 3)  // Q
	add(150, 1000, 4)  // R
	add(167, -200, 3)  // S
	add(260, 250, 15)  // T
	return w
}

func TestLocate_SyntheticBeat(t *testing.T) {
	pts := Locate(syntheticBeat())

	if pts.R != 150 {
		t.Fatalf("Expected R at 150, got %d", pts.R)
	}
	if pts.Q < 125 || pts.Q > 140 {
		t.Errorf("Expected Q near 133, got %d", pts.Q)
	}
	if pts.S < 160 || pts.S > 175 {
		t.Errorf("Expected S near 167, got %d", pts.S)
	}
	if pts.P != 80 {
		t.Errorf("Expected P at 80, got %d", pts.P)
	}
	if pts.T != 260 {
		t.Errorf("Expected T at 260, got %d", pts.T)
	}

	// Порядок опорных точек внутри комплекса
	if !(pts.POnset < pts.P && pts.P < pts.Q && pts.Q < pts.R && pts.R < pts.S && pts.S < pts.T && pts.T < pts.TEnd) {
		t.Errorf("Fiducial points out of order: %+v", pts)
	}

	if pts.QVal >= 0 {
		t.Errorf("Expected negative Q value, got %v", pts.QVal)
	}
	if pts.SVal >= 0 {
		t.Errorf("Expected negative S value, got %v", pts.SVal)
	}
}

func TestMeasure_SyntheticBeat(t *testing.T) {
	pts := Locate(syntheticBeat())
	iv := Measure(pts, 800)

	if iv.QRSDurationMS < 60 || iv.QRSDurationMS > 200 {
		t.Errorf("Expected QRS in 60..200 ms, got %d", iv.QRSDurationMS)
	}
	if iv.PRIntervalMS < 100 || iv.PRIntervalMS > 220 {
		t.Errorf("Expected PR in 100..220 ms, got %d", iv.PRIntervalMS)
	}
	if iv.QTIntervalMS < 250 || iv.QTIntervalMS > 450 {
		t.Errorf("Expected QT in 250..450 ms, got %d", iv.QTIntervalMS)
	}
	if iv.PDurationMS <= 0 || iv.PDurationMS > 200 {
		t.Errorf("Expected positive P duration under 200 ms, got %d", iv.PDurationMS)
	}

	// RR короче секунды, коррекция Базетта удлиняет QT
	if iv.QTcBMS < iv.QTIntervalMS {
		t.Errorf("Expected QTcB >= QT for RR 800 ms, got %d < %d", iv.QTcBMS, iv.QTIntervalMS)
	}
}

func TestLocate_EmptyWaveform(t *testing.T) {
	pts := Locate(nil)
	if pts.R != Sentinel || pts.Q != Sentinel || pts.P != Sentinel || pts.T != Sentinel {
		t.Errorf("Expected sentinels for empty waveform, got %+v", pts)
	}
}

func TestLocate_PeakAtEdge(t *testing.T) {
	// Пик у самого начала окна: поиск Q выходит за границу,
	// зависимые точки остаются ненайденными
	w := make([]float64, 400)
	w[2] = 1000

	pts := Locate(w)
	if pts.R != 2 {
		t.Fatalf("Expected R at 2, got %d", pts.R)
	}
	if pts.Q != Sentinel {
		t.Errorf("Expected sentinel Q for edge peak, got %d", pts.Q)
	}
	if pts.P != Sentinel || pts.T != Sentinel {
		t.Errorf("Expected sentinel P and T for edge peak, got %+v", pts)
	}

	iv := Measure(pts, 800)
	if iv.QRSDurationMS != 0 || iv.PRIntervalMS != 0 || iv.QTIntervalMS != 0 || iv.QTcBMS != 0 {
		t.Errorf("Expected zero intervals without Q, got %+v", iv)
	}
}

func TestMeasure_NoRR(t *testing.T) {
	pts := Locate(syntheticBeat())
	iv := Measure(pts, 0)
	if iv.QTcBMS != 0 {
		t.Errorf("Expected zero QTcB without RR, got %d", iv.QTcBMS)
	}
	if iv.QTIntervalMS == 0 {
		t.Error("Expected QT to be measured regardless of RR")
	}
}

func TestAxis(t *testing.T) {
	if got := Axis(1, 0); got != 0 {
		t.Errorf("Expected axis 0 for horizontal vector, got %d", got)
	}
	if got := Axis(0, 0); got != 0 {
		t.Errorf("Expected axis 0 for zero vector, got %d", got)
	}
	if got := Axis(0, 1); got < 89 || got > 90 {
		t.Errorf("Expected axis ~90 for vertical vector, got %d", got)
	}
	if got := Axis(0, -1); got > -89 || got < -90 {
		t.Errorf("Expected axis ~-90 for downward vector, got %d", got)
	}
	if got := Axis(1, 1); got < 44 || got > 45 {
		t.Errorf("Expected axis ~45, got %d", got)
	}
	if got := Axis(1, -1); got > -44 || got < -45 {
		t.Errorf("Expected axis ~-45, got %d", got)
	}
}
