package filter

// Filter - линейный рекурсивный фильтр прямой формы с кольцевой историей
// фиксированного размера. Одна конфигурируемая реализация покрывает все три
// формы: FIR (только прямые коэффициенты), IIR (прямые + обратные) и
// скользящее среднее как частный случай FIR.
//
// Экземпляр фильтра - конечный автомат "сэмпл за сэмплом": состояние истории
// никогда не сбрасывается посреди прогона, фильтр эмулирует непрерывный
// процесс реального времени поверх пакетной обработки. Накопление всегда
// ведется в double, даже для целочисленных сигналов.
type Filter struct {
	b []float64 // прямые коэффициенты (вход)
	a []float64 // обратные коэффициенты (выход), пустые для FIR

	x  []float64 // кольцевая история входа, len(b)
	y  []float64 // кольцевая история выхода, len(a)
	ix int
	iy int
}

// NewFIR создает фильтр только с прямыми коэффициентами
func NewFIR(b []float64) *Filter {
	return &Filter{
		b: append([]float64(nil), b...),
		x: make([]float64, len(b)),
	}
}

// NewIIR создает фильтр с прямыми и обратными коэффициентами.
// a[k] применяется к y[n-1-k].
func NewIIR(b, a []float64) *Filter {
	f := NewFIR(b)
	f.a = append([]float64(nil), a...)
	f.y = make([]float64, len(a))
	return f
}

// NewMovingAverage создает коробчатый фильтр окна n
func NewMovingAverage(n int) *Filter {
	b := make([]float64, n)
	for i := range b {
		b[i] = 1.0 / float64(n)
	}
	return NewFIR(b)
}

// Process принимает очередной входной сэмпл и возвращает выходной
func (f *Filter) Process(v float64) float64 {
	f.x[f.ix] = v

	acc := 0.0
	idx := f.ix
	for _, c := range f.b {
		acc += c * f.x[idx]
		idx--
		if idx < 0 {
			idx = len(f.x) - 1
		}
	}
	f.ix++
	if f.ix == len(f.x) {
		f.ix = 0
	}

	if len(f.a) > 0 {
		idx = f.iy - 1
		if idx < 0 {
			idx = len(f.y) - 1
		}
		for _, c := range f.a {
			acc += c * f.y[idx]
			idx--
			if idx < 0 {
				idx = len(f.y) - 1
			}
		}
		f.y[f.iy] = acc
		f.iy++
		if f.iy == len(f.y) {
			f.iy = 0
		}
	}

	return acc
}

// Apply прогоняет срез целиком и возвращает новый срез
func (f *Filter) Apply(src []float64) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = f.Process(v)
	}
	return dst
}

// ApplyInPlace перезаписывает src выходом фильтра.
// Моделирует потоковую перезапись сигнала на месте.
func (f *Filter) ApplyInPlace(src []float64) {
	for i, v := range src {
		src[i] = f.Process(v)
	}
}
