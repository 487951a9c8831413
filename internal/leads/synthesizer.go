package leads

import (
	"github.com/Krimson/ecg-glove/pkg/models"
)

// Synthesize дополняет набор отведений расчетными: III, aVR, aVL, aVF.
// Это поэлементные линейные комбинации отфильтрованных I и II, без
// состояния между сэмплами:
//
//	III = II - I
//	aVR = -(I + II) / 2
//	aVL = I - II/2
//	aVF = II - I/2
//
// aVF ортогонален I во фронтальной плоскости и используется ниже как вторая
// проекция при расчете электрических осей.
func Synthesize(ls models.LeadSet) {
	leadI := ls[models.LeadI]
	leadII := ls[models.LeadII]

	n := len(leadI)
	if len(leadII) < n {
		n = len(leadII)
	}

	lead3 := make([]float64, n)
	avr := make([]float64, n)
	avl := make([]float64, n)
	avf := make([]float64, n)

	for i := 0; i < n; i++ {
		lead3[i] = leadII[i] - leadI[i]
		avr[i] = -(leadI[i] + leadII[i]) / 2
		avl[i] = leadI[i] - leadII[i]/2
		avf[i] = leadII[i] - leadI[i]/2
	}

	ls[models.LeadIII] = lead3
	ls[models.LeadAVR] = avr
	ls[models.LeadAVL] = avl
	ls[models.LeadAVF] = avf
}
