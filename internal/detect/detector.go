package detect

import (
	"fmt"

	"github.com/Krimson/ecg-glove/internal/filter"
	"github.com/Krimson/ecg-glove/pkg/models"
)

// Параметры адаптивного детектора. Индексы и окна - в сэмплах при 500 Гц.
const (
	thresholdMin   = 50   // стартовый и минимальный адаптивный порог
	noiseFloor     = 50   // минимальная высота кандидата в огибающей
	rawFloor       = 25   // минимальная амплитуда уточненного пика в сигнале отведения
	confirmWindow  = 100  // окно подтверждения кандидата
	refineRadius   = 100  // радиус уточнения позиции пика
	recalPeaks     = 8    // рекалибровка порога каждые 8 пиков
	longGap        = 1500 // ~3 секунды тишины -> перезапуск поиска с пропущенного участка
	annotationSpan = 25   // окно аннотации QRS после подтвержденного комплекса
	peakFraction   = 0.5  // доля среднего пика при рекалибровке
	clampFraction  = 0.25 // нижний зажим от долгосрочного среднего
	suspectFactor  = 2    // кандидаты ниже suspectFactor*noiseFloor помечаются подозрительными
)

// Detector - детектор комплексов QRS по огибающей производной сигнала.
// Владеет собственными экземплярами фильтров; на один прогон анализа
// создается свежий детектор, переиспользование между прогонами запрещено.
type Detector struct {
	lowPass  *filter.Filter
	highPass *filter.Filter
	deriv    *filter.Filter
	boxcar   *filter.Filter
}

func New() *Detector {
	return &Detector{
		lowPass:  filter.NewBandLowPass(),
		highPass: filter.NewBandHighPass(),
		deriv:    filter.NewDerivative(),
		boxcar:   filter.NewMovingAverage(16),
	}
}

// Detect находит комплексы QRS в отведении (после удаления изолинии).
// Возвращает строго возрастающую последовательность маркеров и аннотацию -
// срез длины сигнала с единицами в 25-сэмпловых окнах QRS.
// Внутренний сбой превращается в ошибку: вызывающий трактует такое
// отведение как отведение с нулем комплексов.
func (d *Detector) Detect(lead []float64) (beats []models.BeatMarker, annotation []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			beats, annotation = nil, nil
			err = fmt.Errorf("beat detection failed: %v", r)
		}
	}()

	envelope := d.detectionSignal(lead)
	annotation = make([]int, len(lead))

	threshold := float64(thresholdMin)
	candIdx := -1
	candHeight := 0.0

	lastActivity := 0 // индекс последнего подтверждения (или старт поиска)
	retried := false

	// Скользящие средние высот пиков для рекалибровки порога
	var recent [recalPeaks]float64
	recentN := 0
	longTermSum, longTermN := 0.0, 0

	lastBeatIdx := -1

	for i := 0; i < len(envelope); i++ {
		v := envelope[i]
		if candIdx < 0 {
			if v > threshold {
				candIdx, candHeight = i, v
			} else if i-lastActivity > longGap && !retried {
				// Долгая тишина: завышенный порог мог спрятать комплексы.
				// Сбрасываем порог и перечитываем пропущенный участок с
				// места последней активности. Следующий перезапуск
				// разрешается только после нового подтвержденного комплекса.
				threshold = thresholdMin
				i = lastActivity
				retried = true
			}
			continue
		}

		if i-candIdx <= confirmWindow {
			// Только локально больший пик перезапускает кандидата
			if v > candHeight {
				candIdx, candHeight = i, v
			}
			continue
		}

		// 100 сэмплов без более крупного пика - решаем судьбу кандидата
		if candHeight > noiseFloor {
			peakIdx, amp := refinePeak(lead, candIdx)
			if amp >= rawFloor && peakIdx > lastBeatIdx {
				beatType := models.BeatNormal
				if candHeight < suspectFactor*noiseFloor {
					beatType = models.BeatSuspect
				}
				beats = append(beats, models.BeatMarker{SampleIndex: peakIdx, Type: beatType})
				annotate(annotation, peakIdx)
				lastBeatIdx = peakIdx
				lastActivity = i
				retried = false

				recent[recentN%recalPeaks] = candHeight
				recentN++
				longTermSum += candHeight
				longTermN++

				if recentN%recalPeaks == 0 {
					threshold = recalibrate(recent[:], longTermSum/float64(longTermN))
				} else {
					threshold = clampMin(peakFraction * candHeight)
				}
			}
		}
		candIdx = -1
	}

	return beats, annotation, nil
}

// detectionSignal строит огибающую: полосовая пара 8-16 Гц, первая разность,
// модуль, коробчатое интегрирование на 16 сэмплов
func (d *Detector) detectionSignal(lead []float64) []float64 {
	out := make([]float64, len(lead))
	for i, v := range lead {
		band := d.highPass.Process(d.lowPass.Process(v))
		dv := d.deriv.Process(band)
		if dv < 0 {
			dv = -dv
		}
		out[i] = d.boxcar.Process(dv)
	}
	return out
}

// refinePeak уточняет позицию комплекса по сигналу отведения в окне
// +-refineRadius вокруг кандидата: берется наибольшее положительное
// отклонение, а если положительных нет - наиболее отрицательное.
// Возвращает индекс и абсолютную амплитуду.
func refinePeak(lead []float64, center int) (int, float64) {
	lo := center - refineRadius
	if lo < 0 {
		lo = 0
	}
	hi := center + refineRadius
	if hi > len(lead) {
		hi = len(lead)
	}

	maxIdx, minIdx := lo, lo
	for i := lo; i < hi; i++ {
		if lead[i] > lead[maxIdx] {
			maxIdx = i
		}
		if lead[i] < lead[minIdx] {
			minIdx = i
		}
	}

	if lead[maxIdx] > 0 {
		return maxIdx, lead[maxIdx]
	}
	return minIdx, -lead[minIdx]
}

// recalibrate пересчитывает порог как долю среднего последних пиков,
// зажатую долгосрочным средним и минимумом
func recalibrate(recent []float64, longTermAvg float64) float64 {
	sum := 0.0
	for _, v := range recent {
		sum += v
	}
	th := peakFraction * sum / float64(len(recent))

	if clamp := clampFraction * longTermAvg; th < clamp {
		th = clamp
	}
	return clampMin(th)
}

func clampMin(th float64) float64 {
	if th < thresholdMin {
		return thresholdMin
	}
	return th
}

func annotate(annotation []int, peakIdx int) {
	end := peakIdx + annotationSpan
	if end > len(annotation) {
		end = len(annotation)
	}
	for i := peakIdx; i < end; i++ {
		annotation[i] = 1
	}
}
