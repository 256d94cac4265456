package audio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// WAVHeaderSize is the length of a canonical RIFF/WAVE header for linear PCM.
const WAVHeaderSize = 44

const (
	pcmSubchunkSize = 16
	pcmAudioFormat  = 1 // linear PCM
)

// WAVHeader builds the 44-byte header describing dataLen bytes of samples in format f.
func WAVHeader(dataLen int, f Format) [WAVHeaderSize]byte {
	var h [WAVHeaderSize]byte
	le := binary.LittleEndian

	copy(h[0:4], "RIFF")
	le.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], pcmSubchunkSize)
	le.PutUint16(h[20:22], pcmAudioFormat)
	le.PutUint16(h[22:24], uint16(f.Channels))
	le.PutUint32(h[24:28], uint32(f.SampleRate))
	le.PutUint32(h[28:32], uint32(f.ByteRate()))
	le.PutUint16(h[32:34], uint16(f.BlockAlign()))
	le.PutUint16(h[34:36], uint16(f.BitsPerSample))

	copy(h[36:40], "data")
	le.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// EncodeWAV wraps raw PCM bytes in a WAV container.
func EncodeWAV(pcm []byte, f Format) []byte {
	h := WAVHeader(len(pcm), f)
	out := make([]byte, 0, WAVHeaderSize+len(pcm))
	out = append(out, h[:]...)
	return append(out, pcm...)
}

// WriteWAVFile writes raw PCM bytes as a WAV file.
func WriteWAVFile(path string, pcm []byte, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAVTo(file, pcm, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteWAVTo writes raw PCM bytes to out as a WAV stream.
func WriteWAVTo(out io.Writer, pcm []byte, f Format) error {
	w := bufio.NewWriter(out)
	h := WAVHeader(len(pcm), f)
	if _, err := w.Write(h[:]); err != nil {
		return err
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}
