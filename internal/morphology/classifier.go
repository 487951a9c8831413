package morphology

import (
	"math"
	"sort"

	"github.com/Krimson/ecg-glove/pkg/models"
)

const (
	// TemplateSize - базовое окно одного комплекса, пик R в центре
	TemplateSize = 200
	// ExtendedSize - расширенное окно для измерения интервалов,
	// пик R на отсчете ExtendedPre
	ExtendedSize = 400

	// ExtendedPre - сэмплов до пика в расширенном окне
	ExtendedPre = 150

	templatePre     = TemplateSize / 2
	corrThreshold   = 0.85
	maxClasses      = 8
	centerTolerance = 20
)

// Class - морфологический класс: накапливаемые суммы волновых форм и счетчик.
// Длина накопленных сумм всегда равна объявленному окну. Класс никогда не
// удаляется, только обнуляется при провале валидации формы.
type Class struct {
	sum    []float64 // TemplateSize
	sumExt []float64 // ExtendedSize
	count  int
}

// Count возвращает число комплексов, накопленных классом
func (c *Class) Count() int { return c.count }

// Average возвращает усредненную волновую форму базового окна
func (c *Class) Average() []float64 {
	return averageOf(c.sum, c.count)
}

// ExtendedAverage возвращает усредненную форму расширенного окна
func (c *Class) ExtendedAverage() []float64 {
	return averageOf(c.sumExt, c.count)
}

func averageOf(sum []float64, count int) []float64 {
	avg := make([]float64, len(sum))
	if count == 0 {
		return avg
	}
	for i, v := range sum {
		avg[i] = v / float64(count)
	}
	return avg
}

func (c *Class) zero() {
	for i := range c.sum {
		c.sum[i] = 0
	}
	for i := range c.sumExt {
		c.sumExt[i] = 0
	}
	c.count = 0
}

// Classifier группирует комплексы по форме онлайн: комплекс попадает в
// первый класс, чья средняя форма коррелирует с ним выше порога, иначе
// открывает новый класс. Больше восьми классов не создается, лишние
// комплексы отбрасываются.
type Classifier struct {
	classes   []*Class
	dropped   int
	finalized bool
}

func New() *Classifier {
	return &Classifier{}
}

// Add извлекает окна комплекса вокруг маркера и относит его к классу.
// Возвращает false, если окно выходит за границы сигнала или комплекс
// отброшен по переполнению классов.
func (c *Classifier) Add(lead []float64, beat models.BeatMarker) bool {
	p := beat.SampleIndex
	if p-ExtendedPre < 0 || p+(ExtendedSize-ExtendedPre) > len(lead) {
		return false
	}

	window := lead[p-templatePre : p+templatePre]
	extended := lead[p-ExtendedPre : p+(ExtendedSize-ExtendedPre)]

	for _, cl := range c.classes {
		if cl.count > 0 && correlation(cl.Average(), window) > corrThreshold {
			accumulate(cl, window, extended)
			return true
		}
	}

	if len(c.classes) >= maxClasses {
		c.dropped++
		return false
	}

	cl := &Class{
		sum:    make([]float64, TemplateSize),
		sumExt: make([]float64, ExtendedSize),
	}
	accumulate(cl, window, extended)
	c.classes = append(c.classes, cl)
	return true
}

func accumulate(cl *Class, window, extended []float64) {
	for i, v := range window {
		cl.sum[i] += v
	}
	for i, v := range extended {
		cl.sumExt[i] += v
	}
	cl.count++
}

// Finalize валидирует форму классов и ранжирует их по убыванию счетчика.
// Класс обнуляется, если абсолютный максимум его средней формы лежит
// дальше +-centerTolerance от центра окна - так отсеиваются шумовые
// кластеры, маскирующиеся под комплексы.
func (c *Classifier) Finalize() {
	for _, cl := range c.classes {
		if cl.count == 0 {
			continue
		}
		avg := cl.Average()
		peak := absArgmax(avg)
		if peak < templatePre-centerTolerance || peak > templatePre+centerTolerance {
			cl.zero()
		}
	}

	sort.SliceStable(c.classes, func(i, j int) bool {
		return c.classes[i].count > c.classes[j].count
	})
	c.finalized = true
}

// Dominant возвращает класс с наибольшим числом комплексов, прошедший
// валидацию, либо nil
func (c *Classifier) Dominant() *Class {
	if !c.finalized {
		c.Finalize()
	}
	if len(c.classes) == 0 || c.classes[0].count == 0 {
		return nil
	}
	return c.classes[0]
}

// Classes возвращает число открытых классов
func (c *Classifier) Classes() int { return len(c.classes) }

// Dropped возвращает число комплексов, отброшенных по переполнению
func (c *Classifier) Dropped() int { return c.dropped }

func absArgmax(v []float64) int {
	idx := 0
	best := math.Abs(v[0])
	for i, x := range v {
		if a := math.Abs(x); a > best {
			best = a
			idx = i
		}
	}
	return idx
}

// correlation - корреляция Пирсона двух последовательностей равной длины
// после центрирования каждой на собственное среднее
func correlation(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	meanA, meanB := 0.0, 0.0
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var num, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return num / math.Sqrt(varA*varB)
}
