package models

// Lead идентифицирует отведение ЭКГ
type Lead string

const (
	LeadI   Lead = "I"
	LeadII  Lead = "II"
	LeadIII Lead = "III"
	LeadAVR Lead = "aVR"
	LeadAVL Lead = "aVL"
	LeadAVF Lead = "aVF"
	LeadV1  Lead = "V1"
	LeadV2  Lead = "V2"
	LeadV3  Lead = "V3"
	LeadV4  Lead = "V4"
	LeadV5  Lead = "V5"
	LeadV6  Lead = "V6"
)

// CapturedLeads - отведения, снимаемые перчаткой напрямую, в порядке каналов устройства
var CapturedLeads = []Lead{LeadI, LeadII, LeadV1, LeadV2, LeadV3, LeadV4, LeadV5, LeadV6}

// DerivedLeads - отведения, вычисляемые из I и II
var DerivedLeads = []Lead{LeadIII, LeadAVR, LeadAVL, LeadAVF}

// LeadSet содержит сигналы всех отведений одного анализа
type LeadSet map[Lead][]float64

// Len возвращает длину первичных отведений (I и II всегда одной длины)
func (ls LeadSet) Len() int {
	return len(ls[LeadI])
}

// BeatType различает нормальные и подозрительные комплексы
type BeatType int

const (
	BeatNormal BeatType = iota
	BeatSuspect
)

// BeatMarker - позиция обнаруженного комплекса QRS
type BeatMarker struct {
	SampleIndex int      `json:"sample_index"`
	Type        BeatType `json:"type"`
}

// Статусы анализа, возвращаемые оркестратором.
// Отрицательные коды фатальны для прогона: вектор результатов не публикуется.
const (
	StatusOK               = 0    // анализ завершен успешно
	StatusNoDominantClass  = -1   // ни один морфологический класс не прошел валидацию
	StatusLeadIFewBeats    = -101 // на отведении I меньше 4 комплексов
	StatusLeadIIFewBeats   = -104 // на отведении II меньше 4 комплексов
	StatusNoBeatsOnAnyLead = -200 // на обоих первичных отведениях ноль комплексов
)

// ResultVector - итоговые клинические измерения одного анализа.
// Поля, которые не удалось вычислить, остаются нулевыми (документированный
// сентинел); при фатальном статусе весь вектор считается неопределенным.
type ResultVector struct {
	PDurationMS   int     `json:"p_duration_ms"`
	PRIntervalMS  int     `json:"pr_interval_ms"`
	QRSDurationMS int     `json:"qrs_duration_ms"`
	QTIntervalMS  int     `json:"qt_interval_ms"`
	QTcBMS        int     `json:"qtcb_ms"`
	PAxisDeg      int     `json:"p_axis_deg"`
	QRSAxisDeg    int     `json:"qrs_axis_deg"`
	TAxisDeg      int     `json:"t_axis_deg"`
	RRIntervalMS  float64 `json:"rr_interval_ms"`
	// RRUndoubledMS - вариант RR без удвоения интервалов перед усреднением,
	// выдается параллельно для сравнения в приемочных тестах
	RRUndoubledMS float64 `json:"rr_undoubled_ms"`
	HeartRateBPM  float64 `json:"heart_rate_bpm"`
	BeatCount     int     `json:"beat_count"`
	AnalysisLead  Lead    `json:"analysis_lead"`
}

// AnalysisOutput - полный выход оркестратора для слоя представления
type AnalysisOutput struct {
	Status    int                   `json:"status"`
	Results   *ResultVector         `json:"results,omitempty"`
	Waveforms LeadSet               `json:"waveforms,omitempty"`
	Beats     map[Lead][]BeatMarker `json:"beats,omitempty"`
}
