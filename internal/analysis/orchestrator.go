package analysis

import (
	"log"
	"sync"

	"github.com/Krimson/ecg-glove/internal/decoder"
	"github.com/Krimson/ecg-glove/internal/detect"
	"github.com/Krimson/ecg-glove/internal/features"
	"github.com/Krimson/ecg-glove/internal/filter"
	"github.com/Krimson/ecg-glove/internal/leads"
	"github.com/Krimson/ecg-glove/internal/morphology"
	"github.com/Krimson/ecg-glove/pkg/models"
)

const (
	// Минимум комплексов на опорном отведении для клинических измерений
	minBeatsForAnalysis = 4

	msPerSample = 2
)

// Orchestrator проводит один захват через полный конвейер: декодирование,
// фильтрация, синтез отведений, детекция на I и II, классификация формы,
// извлечение признаков. Экземпляр без состояния, все стадии получают
// свежие объекты на каждый прогон.
type Orchestrator struct {
	baseline filter.BaselineVariant
}

func New() *Orchestrator {
	return &Orchestrator{baseline: filter.Baseline05}
}

// NewWithBaseline создает оркестратор с нештатным фильтром изолинии
func NewWithBaseline(v filter.BaselineVariant) *Orchestrator {
	return &Orchestrator{baseline: v}
}

type leadResult struct {
	beats      []models.BeatMarker
	annotation []int
	err        error
}

// Analyze выполняет полный анализ буфера захвата. Всегда возвращает выход
// со статусом; при фатальном статусе вектор результатов отсутствует,
// волновые формы и маркеры отдаются для визуального контроля.
func (o *Orchestrator) Analyze(capture []byte) *models.AnalysisOutput {
	raw := decoder.New().Decode(capture)

	set := make(models.LeadSet, len(models.CapturedLeads)+len(models.DerivedLeads))
	for _, lead := range models.CapturedLeads {
		set[lead] = filter.NewBaseline(o.baseline).Apply(raw[lead])
	}
	leads.Synthesize(set)

	// Детекция на первичных отведениях параллельно, у каждой горутины
	// свой детектор и свой слот результата
	primary := []models.Lead{models.LeadI, models.LeadII}
	results := make(map[models.Lead]*leadResult, len(primary))

	var wg sync.WaitGroup
	for _, ld := range primary {
		r := &leadResult{}
		results[ld] = r
		wg.Add(1)
		go func(ld models.Lead, r *leadResult) {
			defer wg.Done()
			r.beats, r.annotation, r.err = detect.New().Detect(set[ld])
			if r.err != nil {
				log.Printf("[ERROR] Beat detection failed: lead=%s err=%v", ld, r.err)
			}
		}(ld, r)
	}
	wg.Wait()

	out := &models.AnalysisOutput{
		Waveforms: set,
		Beats: map[models.Lead][]models.BeatMarker{
			models.LeadI:  results[models.LeadI].beats,
			models.LeadII: results[models.LeadII].beats,
		},
	}

	nI := len(results[models.LeadI].beats)
	nII := len(results[models.LeadII].beats)
	if nI == 0 && nII == 0 {
		out.Status = models.StatusNoBeatsOnAnyLead
		log.Printf("[WARN] Analysis aborted: no beats on either primary lead, samples=%d", set.Len())
		return out
	}

	// Опорное отведение - где комплексов больше, при равенстве II
	auth := models.LeadII
	if nI > nII {
		auth = models.LeadI
	}
	beats := results[auth].beats

	if len(beats) < minBeatsForAnalysis {
		if auth == models.LeadI {
			out.Status = models.StatusLeadIFewBeats
		} else {
			out.Status = models.StatusLeadIIFewBeats
		}
		log.Printf("[WARN] Analysis aborted: too few beats, lead=%s beats=%d", auth, len(beats))
		return out
	}

	cls := morphology.New()
	for _, b := range beats {
		cls.Add(set[auth], b)
	}
	dom := cls.Dominant()
	if dom == nil {
		out.Status = models.StatusNoDominantClass
		log.Printf("[WARN] Analysis aborted: no valid morphology class, lead=%s beats=%d dropped=%d",
			auth, len(beats), cls.Dropped())
		return out
	}

	rrMS, rrUndoubledMS := rrStatistics(beats)

	pts := features.ExtractTemplate(dom)
	iv := features.Measure(pts, rrMS)

	// Оси меряются по проекциям на I и на ортогональное ему aVF,
	// усредненным вокруг тех же маркеров
	ptsI := features.Locate(averageExtended(set[models.LeadI], beats))
	ptsF := features.Locate(averageExtended(set[models.LeadAVF], beats))

	out.Status = models.StatusOK
	out.Results = &models.ResultVector{
		PDurationMS:   iv.PDurationMS,
		PRIntervalMS:  iv.PRIntervalMS,
		QRSDurationMS: iv.QRSDurationMS,
		QTIntervalMS:  iv.QTIntervalMS,
		QTcBMS:        iv.QTcBMS,
		PAxisDeg:      features.PAxis(ptsI, ptsF),
		QRSAxisDeg:    features.QRSAxis(ptsI, ptsF),
		TAxisDeg:      features.TAxis(ptsI, ptsF),
		RRIntervalMS:  rrMS,
		RRUndoubledMS: rrUndoubledMS,
		HeartRateBPM:  heartRate(rrMS),
		BeatCount:     len(beats),
		AnalysisLead:  auth,
	}

	log.Printf("[INFO] Analysis complete: lead=%s beats=%d classes=%d rr_ms=%.1f qrs_ms=%d",
		auth, len(beats), cls.Classes(), rrMS, iv.QRSDurationMS)
	return out
}

// rrStatistics считает средний интервал RR по маркерам опорного отведения.
// Интервалы переводятся в миллисекунды и удваиваются, перед усреднением
// отбрасываются один наибольший и один наименьший. Вторым значением
// возвращается вариант без удвоения.
func rrStatistics(beats []models.BeatMarker) (doubled, undoubled float64) {
	if len(beats) < 2 {
		return 0, 0
	}

	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		intervals = append(intervals, float64(beats[i].SampleIndex-beats[i-1].SampleIndex)*msPerSample)
	}

	trimmed := trimExtremes(intervals)
	sum := 0.0
	for _, v := range trimmed {
		sum += v
	}
	avg := sum / float64(len(trimmed))
	return 2 * avg, avg
}

// trimExtremes отбрасывает по одному наибольшему и наименьшему значению,
// если их хотя бы три
func trimExtremes(v []float64) []float64 {
	if len(v) < 3 {
		return v
	}
	maxI, minI := 0, 0
	for i, x := range v {
		if x > v[maxI] {
			maxI = i
		}
		if x < v[minI] {
			minI = i
		}
	}
	out := make([]float64, 0, len(v)-2)
	for i, x := range v {
		if i == maxI || i == minI {
			continue
		}
		out = append(out, x)
	}
	if len(out) == 0 {
		// Все значения равны, maxI == minI
		return v
	}
	return out
}

func heartRate(rrMS float64) float64 {
	if rrMS <= 0 {
		return 0
	}
	return 60000 / rrMS
}

// averageExtended усредняет расширенные окна отведения вокруг маркеров,
// окна за границами сигнала пропускаются
func averageExtended(lead []float64, beats []models.BeatMarker) []float64 {
	avg := make([]float64, morphology.ExtendedSize)
	n := 0
	for _, b := range beats {
		p := b.SampleIndex
		if p-morphology.ExtendedPre < 0 || p+(morphology.ExtendedSize-morphology.ExtendedPre) > len(lead) {
			continue
		}
		for i := range avg {
			avg[i] += lead[p-morphology.ExtendedPre+i]
		}
		n++
	}
	if n == 0 {
		return avg
	}
	for i := range avg {
		avg[i] /= float64(n)
	}
	return avg
}
