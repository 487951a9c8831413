package decoder

import (
	"log"

	"github.com/Krimson/ecg-glove/pkg/models"
)

// Константы кадрирования потока перчатки
const (
	syncByte   = 0x80
	headerMark = 0x17
	headerSize = 7

	ecgPacketType   = 0x51
	faultPacketType = 0x03

	// Полезная нагрузка ЭКГ: 5 субкадров по 17 байт
	// (8 каналов x int16 little-endian + собственная контрольная сумма)
	subFrameSize     = 17
	subFramesPerPkt  = 5
	ecgPayloadSize   = subFrameSize * subFramesPerPkt
	faultPayloadSize = 10

	channelCount = 8

	// Маркер, после которого осталось меньше minTailBytes байт,
	// считается усеченным хвостом записи, а не порчей данных
	minTailBytes = 11
)

// Decoder разбирает бинарный поток перчатки на посемпловые
// последовательности восьми каналов. Экземпляр живет один прогон анализа.
type Decoder struct {
	channels [channelCount][]float64

	packets      int
	faults       int
	badSubFrames int
}

func New() *Decoder {
	return &Decoder{}
}

// Decode сканирует буфер захвата и накапливает сэмплы каналов.
// Буфер без единого валидного пакета не является ошибкой: возвращается
// пустой набор отведений, решение о достаточности сигнала принимает
// оркестратор.
func (d *Decoder) Decode(data []byte) models.LeadSet {
	size := len(data)
	i := 0

scan:
	for i < size {
		if data[i] != syncByte {
			i++
			continue
		}

		if size-i < minTailBytes {
			// Усеченный хвост - конец потока
			break
		}

		header := data[i : i+headerSize]
		if header[1] != headerMark || header[2] != 0x00 || sumMod256(header) != 0 {
			i++
			continue
		}

		packetType := header[5]
		switch packetType {
		case ecgPacketType:
			end := i + headerSize + ecgPayloadSize
			if end > size {
				break scan
			}
			d.decodeECGPayload(data[i+headerSize : end])
			d.packets++
			i = end

		case faultPacketType:
			end := i + headerSize + faultPayloadSize
			if end > size {
				break scan
			}
			// Пакеты неисправности устройства пока только подсчитываем
			d.faults++
			i = end

		default:
			i++
		}
	}

	leads := d.buildLeadSet()
	log.Printf("[INFO] Decode complete: packets=%d faults=%d bad_subframes=%d samples_per_lead=%d",
		d.packets, d.faults, d.badSubFrames, leads.Len())
	return leads
}

// decodeECGPayload разбирает 5 субкадров; субкадр с неверной контрольной
// суммой пропускается, теряются только его 8 сэмплов
func (d *Decoder) decodeECGPayload(payload []byte) {
	for f := 0; f < subFramesPerPkt; f++ {
		sub := payload[f*subFrameSize : (f+1)*subFrameSize]
		if sumMod256(sub) != 0 {
			d.badSubFrames++
			continue
		}
		for ch := 0; ch < channelCount; ch++ {
			v := int16(uint16(sub[2*ch]) | uint16(sub[2*ch+1])<<8)
			d.channels[ch] = append(d.channels[ch], float64(v))
		}
	}
}

// buildLeadSet выравнивает каналы по минимальной длине и раскладывает их
// по именам отведений в порядке каналов устройства
func (d *Decoder) buildLeadSet() models.LeadSet {
	minLen := len(d.channels[0])
	for ch := 1; ch < channelCount; ch++ {
		if len(d.channels[ch]) < minLen {
			minLen = len(d.channels[ch])
		}
	}

	leads := make(models.LeadSet, channelCount)
	for ch, lead := range models.CapturedLeads {
		leads[lead] = d.channels[ch][:minLen]
	}
	return leads
}

// Packets возвращает число принятых пакетов ЭКГ
func (d *Decoder) Packets() int { return d.packets }

// Faults возвращает число пакетов неисправности
func (d *Decoder) Faults() int { return d.faults }

// BadSubFrames возвращает число отброшенных субкадров
func (d *Decoder) BadSubFrames() int { return d.badSubFrames }

func sumMod256(b []byte) byte {
	var s byte
	for _, v := range b {
		s += v
	}
	return s
}
