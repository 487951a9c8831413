package features

import (
	"math"

	"github.com/Krimson/ecg-glove/internal/morphology"
)

// Sentinel - признак "точка не найдена": окно поиска вышло за границы
// массива или нужный переход не обнаружен. Сбой локализации не фатален,
// зависимые поля результата остаются нулевыми.
const Sentinel = -1

// Окна поиска опорных точек на расширенном (400 сэмплов) шаблоне.
// Единица времени - сэмпл (2 мс при 500 Гц).
const (
	qSearchNear = 5   // зубец Q: от R-5 ...
	qSearchFar  = 40  // ... до R-40 назад
	qOnsetSpan  = 30  // окно поиска начала Q за его вершиной
	sSearchFar  = 50  // зубец S: до R+50 вперед
	sEndSpan    = 30  // окно поиска конца S
	pSearchGap  = 10  // зубец P: от Q-10 ...
	pSearchFar  = 150 // ... до Q-150 назад
	pRefineSpan = 50  // уточнение границ P по пику второй производной
	tSearchNear = 80  // зубец T: от Q+80 (за пределами QRS) ...
	tSearchFar  = 250 // ... до Q+250 вперед
	tEndSpan    = 50  // окно поиска конца T
	msPerSample = 2   // фиксированное допущение о частоте 500 Гц
)

// Points - найденные опорные точки волн на шаблоне доминирующего класса.
// Индексы в сэмплах расширенного окна, Sentinel если точка не найдена.
type Points struct {
	R      int
	Q      int
	QOnset int
	S      int
	SEnd   int
	P      int
	POnset int
	POff   int
	T      int
	TEnd   int

	RVal float64
	QVal float64
	SVal float64
	PVal float64
	TVal float64
}

// Locate находит опорные точки P/Q/R/S/T на усредненной волновой форме.
// Работает по самой форме и ее численным производным (массивам первых
// разностей первого, второго и третьего порядка).
func Locate(w []float64) Points {
	pts := Points{
		R: Sentinel, Q: Sentinel, QOnset: Sentinel, S: Sentinel, SEnd: Sentinel,
		P: Sentinel, POnset: Sentinel, POff: Sentinel, T: Sentinel, TEnd: Sentinel,
	}
	if len(w) < 3 {
		return pts
	}

	d1 := diff(w)
	d2 := diff(d1)
	d3 := diff(d2)

	// R - глобальный максимум шаблона
	pts.R = argmax(w, 0, len(w))
	pts.RVal = w[pts.R]

	pts.locateQ(w, d1, d2)
	pts.locateS(w, d1, d3)
	pts.locateP(w, d2)
	pts.locateT(w, d2)

	return pts
}

// locateQ ищет назад от R переход первой производной через ноль, затем
// переход второй производной для начала зубца, локальный минимум - вершина Q
func (p *Points) locateQ(w, d1, d2 []float64) {
	lo := p.R - qSearchFar
	if lo < 0 {
		return
	}
	for i := p.R - qSearchNear; i >= lo; i-- {
		if i >= len(d1) {
			continue
		}
		if d1[i] <= 0 {
			p.Q = i + 1
			break
		}
	}
	if p.Q == Sentinel {
		return
	}
	p.QVal = w[p.Q]

	for j := p.Q - 2; j >= p.Q-qOnsetSpan && j >= 0; j-- {
		if d2[j] <= 0 {
			p.QOnset = j
			break
		}
	}
	if p.QOnset != Sentinel {
		// Вершина Q - локальный минимум между началом зубца и R
		q := argmin(w, p.QOnset, p.R)
		p.Q = q
		p.QVal = w[q]
	}
}

// locateS ищет вперед от R переход первой производной через ноль, затем
// смену знака третьей производной - конец зубца
func (p *Points) locateS(w, d1, d3 []float64) {
	hi := p.R + sSearchFar
	if hi >= len(d1) {
		return
	}
	for i := p.R + qSearchNear; i <= hi; i++ {
		if d1[i] >= 0 {
			p.S = i
			break
		}
	}
	if p.S == Sentinel {
		return
	}
	p.SVal = w[p.S]

	for j := p.S; j < p.S+sEndSpan && j+1 < len(d3); j++ {
		if d3[j]*d3[j+1] < 0 {
			p.SEnd = j + 1
			break
		}
	}
}

// locateP ищет максимум в окне до 150 сэмплов назад от Q, границы зубца
// уточняются пиками второй производной по обе стороны от вершины
func (p *Points) locateP(w, d2 []float64) {
	if p.Q == Sentinel {
		return
	}
	hi := p.Q - pSearchGap
	lo := p.Q - pSearchFar
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return
	}
	p.P = argmax(w, lo, hi)
	p.PVal = w[p.P]

	onLo := p.P - pRefineSpan
	if onLo < 0 {
		onLo = 0
	}
	if p.P > onLo {
		p.POnset = argmax(d2, onLo, p.P)
	}

	offHi := p.P + pRefineSpan
	if offHi > p.Q {
		offHi = p.Q
	}
	if offHi > p.P+1 {
		p.POff = argmax(d2, p.P+1, offHi)
	}
}

// locateT ищет максимум в окне Q+80..Q+250, конец зубца - пик второй
// производной за вершиной
func (p *Points) locateT(w, d2 []float64) {
	if p.Q == Sentinel {
		return
	}
	lo := p.Q + tSearchNear
	hi := p.Q + tSearchFar
	if hi > len(w) {
		hi = len(w)
	}
	if lo >= hi {
		return
	}
	p.T = argmax(w, lo, hi)
	p.TVal = w[p.T]

	endHi := p.T + tEndSpan
	if endHi > len(d2) {
		endHi = len(d2)
	}
	if endHi > p.T+1 {
		p.TEnd = argmax(d2, p.T+1, endHi)
	}
}

// Intervals - интервалы в миллисекундах, 0 если не вычислимы
type Intervals struct {
	PDurationMS   int
	PRIntervalMS  int
	QRSDurationMS int
	QTIntervalMS  int
	QTcBMS        int
}

// Measure выводит интервалы из опорных точек по фиксированным формулам.
// Множитель msPerSample отражает частоту дискретизации 500 Гц: времена
// меряются в тиках по 2 мс и приводятся к миллисекундам.
func Measure(pts Points, rrMS float64) Intervals {
	var iv Intervals

	if pts.Q != Sentinel && pts.S != Sentinel {
		iv.QRSDurationMS = msPerSample * (pts.S - pts.Q)
	}
	if pts.Q != Sentinel && pts.POnset != Sentinel {
		iv.PRIntervalMS = msPerSample * (pts.Q - pts.POnset)
	}
	if pts.POnset != Sentinel && pts.POff != Sentinel {
		iv.PDurationMS = msPerSample * (pts.POff - pts.POnset)
	}
	if pts.Q != Sentinel && pts.TEnd != Sentinel {
		iv.QTIntervalMS = msPerSample * (pts.TEnd - pts.Q)
	}
	if iv.QTIntervalMS > 0 && rrMS > 0 {
		// Коррекция Базетта: QT / sqrt(RR в секундах)
		iv.QTcBMS = int(float64(iv.QTIntervalMS) / math.Sqrt(rrMS/1000))
	}
	return iv
}

// ExtractTemplate локализует опорные точки доминирующего класса
func ExtractTemplate(dom *morphology.Class) Points {
	return Locate(dom.ExtendedAverage())
}

// Axis вычисляет угол фронтальной оси в градусах по двум ортогональным
// проекциям: arcsin(a2 / hypot(a1, a2)), усеченный до целого
func Axis(a1, a2 float64) int {
	h := math.Hypot(a1, a2)
	if h == 0 {
		return 0
	}
	return int(math.Asin(a2/h) * 180 / math.Pi)
}

// QRSAxis - ось QRS по суммам вершин Q+R+S в двух проекциях
func QRSAxis(p1, p2 Points) int {
	return Axis(p1.QVal+p1.RVal+p1.SVal, p2.QVal+p2.RVal+p2.SVal)
}

// PAxis - ось зубца P по его вершинам в двух проекциях
func PAxis(p1, p2 Points) int {
	return Axis(p1.PVal, p2.PVal)
}

// TAxis - ось зубца T по его вершинам в двух проекциях
func TAxis(p1, p2 Points) int {
	return Axis(p1.TVal, p2.TVal)
}

func diff(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	d := make([]float64, len(v)-1)
	for i := 0; i < len(v)-1; i++ {
		d[i] = v[i+1] - v[i]
	}
	return d
}

func argmax(v []float64, lo, hi int) int {
	idx := lo
	for i := lo; i < hi; i++ {
		if v[i] > v[idx] {
			idx = i
		}
	}
	return idx
}

func argmin(v []float64, lo, hi int) int {
	idx := lo
	for i := lo; i < hi; i++ {
		if v[i] < v[idx] {
			idx = i
		}
	}
	return idx
}
