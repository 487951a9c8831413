package decoder

// Кодирование пакетов в формат перчатки. Используется эмулятором захвата
// и тестами; устройство формирует точно такие же кадры.

// EncodeECGPacket собирает пакет данных ЭКГ из 5 субкадров по 8 каналов
func EncodeECGPacket(frames [subFramesPerPkt][channelCount]int16) []byte {
	pkt := make([]byte, 0, headerSize+ecgPayloadSize)
	pkt = append(pkt, encodeHeader(ecgPacketType)...)

	for f := 0; f < subFramesPerPkt; f++ {
		sub := make([]byte, 0, subFrameSize)
		for ch := 0; ch < channelCount; ch++ {
			v := uint16(frames[f][ch])
			sub = append(sub, byte(v&0xFF), byte(v>>8))
		}
		sub = append(sub, checksumFor(sub))
		pkt = append(pkt, sub...)
	}
	return pkt
}

// EncodeFaultPacket собирает пакет неисправности устройства
func EncodeFaultPacket(code byte) []byte {
	pkt := make([]byte, 0, headerSize+faultPayloadSize)
	pkt = append(pkt, encodeHeader(faultPacketType)...)
	payload := make([]byte, faultPayloadSize)
	payload[0] = code
	return append(pkt, payload...)
}

func encodeHeader(packetType byte) []byte {
	h := []byte{syncByte, headerMark, 0x00, 0x00, 0x00, packetType, 0x00}
	h[headerSize-1] = checksumFor(h[:headerSize-1])
	return h
}

// checksumFor возвращает байт, доводящий сумму по модулю 256 до нуля
func checksumFor(b []byte) byte {
	var s byte
	for _, v := range b {
		s += v
	}
	return -s
}
