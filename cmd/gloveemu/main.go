package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/Krimson/ecg-glove/internal/decoder"
)

// Эмулятор перчатки: пишет синтетический бинарный поток захвата
// для демонстраций и проверки конвейера без устройства.

const sampleRate = 500

func main() {
	outputPath := flag.String("output", "capture.bin", "Path for the generated capture file")
	durationSec := flag.Int("duration-sec", 10, "Capture duration in seconds")
	bpm := flag.Float64("bpm", 60, "Simulated heart rate")
	noise := flag.Float64("noise", 10, "Gaussian noise amplitude")
	faultEvery := flag.Int("fault-every", 0, "Insert a fault packet every N data packets (0 = never)")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	length := *durationSec * sampleRate
	length -= length % 5 // целое число пакетов

	interval := int(60 / *bpm * sampleRate)
	var centers []int
	for c := interval; c < length-300; c += interval {
		centers = append(centers, c)
	}

	leadI := ecgSignal(length, 1, *noise, rng, centers)
	leadII := ecgSignal(length, 2, *noise, rng, centers)

	var buf []byte
	packets := 0
	faults := 0
	for p := 0; p < length/5; p++ {
		var frames [5][8]int16
		for f := 0; f < 5; f++ {
			s := 5*p + f
			frames[f][0] = int16(leadI[s])
			frames[f][1] = int16(leadII[s])
			// Грудные каналы: ослабленная копия I с собственным шумом
			for ch := 2; ch < 8; ch++ {
				frames[f][ch] = int16(leadI[s]/2 + rng.NormFloat64()*(*noise))
			}
		}
		buf = append(buf, decoder.EncodeECGPacket(frames)...)
		packets++

		if *faultEvery > 0 && packets%*faultEvery == 0 {
			buf = append(buf, decoder.EncodeFaultPacket(0x01)...)
			faults++
		}
	}

	if err := os.WriteFile(*outputPath, buf, 0o644); err != nil {
		log.Fatalf("[FATAL] Failed to write capture file: %v", err)
	}

	log.Printf("[INFO] Capture written: file=%s bytes=%d packets=%d faults=%d beats=%d",
		*outputPath, len(buf), packets, faults, len(centers))
}

// ecgSignal строит отведение с комплексами PQRST и гауссовым шумом
func ecgSignal(length int, scale, noise float64, rng *rand.Rand, centers []int) []float64 {
	s := make([]float64, length)
	for _, c := range centers {
		addWave(s, c-70, 200*scale, 10)
		addWave(s, c-17, -300*scale, 3)
		addWave(s, c, 2000*scale, 4)
		addWave(s, c+17, -400*scale, 3)
		addWave(s, c+110, 400*scale, 15)
	}
	for i := range s {
		s[i] += rng.NormFloat64() * noise
	}
	return s
}

func addWave(sig []float64, center int, amplitude, sigma float64) {
	for i := range sig {
		z := float64(i-center) / sigma
		if z < -6 || z > 6 {
			continue
		}
		sig[i] += amplitude * math.Exp(-0.5*z*z)
	}
}
