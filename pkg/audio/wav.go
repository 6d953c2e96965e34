package audio

import (
	"encoding/base64"
	"encoding/binary"
)

// PCMToWAV wraps raw 16-bit mono PCM in a WAV container so Whisper can
// detect the format.
func PCMToWAV(pcmData []byte, sampleRate int) []byte {
	if sampleRate == 0 {
		sampleRate = 16000
	}
	const bitsPerSample = 16
	const channels = 1
	dataSize := len(pcmData)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*channels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(header[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	return append(header, pcmData...)
}

// DecodeBase64PCM decodes a base64 media chunk into raw PCM bytes.
func DecodeBase64PCM(base64Data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Data)
}
