package filter

// Табличные коэффициенты клинических фильтров для частоты дискретизации
// 500 Гц. Биквады удаления дрейфа изолинии взяты из опубликованного набора
// (варианты 0.05 / 0.15 / 0.5 Гц), полосовая пара 8-16 Гц - целочисленные
// фильтры Пана-Томпкинса.

// BaselineVariant выбирает частоту среза фильтра изолинии
type BaselineVariant int

const (
	Baseline005 BaselineVariant = iota // 0.05 Гц
	Baseline015                        // 0.15 Гц
	Baseline05                         // 0.5 Гц, штатный для анализа
)

type biquad struct {
	hp0, hp1, gain float64
}

var baselineTable = map[BaselineVariant]biquad{
	Baseline005: {hp0: -0.9987734371, hp1: 1.9987726844, gain: 1.00061384},
	Baseline015: {hp0: -0.9963349287, hp1: 1.9963282000, gain: 1.001837588},
	Baseline05:  {hp0: -0.9878018507, hp1: 1.9877269954, gain: 1.006155446},
}

// NewBaseline создает биквад удаления дрейфа изолинии:
// y[n] = (x[n] - 2x[n-1] + x[n-2])/G + HP1*y[n-1] + HP0*y[n-2]
func NewBaseline(v BaselineVariant) *Filter {
	q := baselineTable[v]
	b := []float64{1 / q.gain, -2 / q.gain, 1 / q.gain}
	a := []float64{q.hp1, q.hp0}
	return NewIIR(b, a)
}

// NewBandLowPass создает НЧ-звено полосовой пары:
// y[n] = 2y[n-1] - y[n-2] + x[n] - 2x[n-6] + x[n-12]
func NewBandLowPass() *Filter {
	b := make([]float64, 13)
	b[0] = 1
	b[6] = -2
	b[12] = 1
	a := []float64{2, -1}
	return NewIIR(b, a)
}

// NewBandHighPass создает ВЧ-звено полосовой пары:
// y[n] = y[n-1] - x[n]/32 + x[n-16] - x[n-17] + x[n-32]/32
func NewBandHighPass() *Filter {
	b := make([]float64, 33)
	b[0] = -1.0 / 32.0
	b[16] = 1
	b[17] = -1
	b[32] = 1.0 / 32.0
	a := []float64{1}
	return NewIIR(b, a)
}

// NewDerivative создает фильтр первой разности
func NewDerivative() *Filter {
	return NewFIR([]float64{1, -1})
}
