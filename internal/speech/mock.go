package speech

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/antoniostano/fitcoach/internal/audio"
)

// MockProvider synthesizes a deterministic tone whose length follows the
// text. It mirrors the provider's chunking: the MIME type rides on the first
// chunk only.
type MockProvider struct {
	SampleRate int
	Chunks     int
	// PerChar is the audio duration emitted per input character.
	PerChar time.Duration
	// Err, when set, is returned by OpenStream.
	Err error
	// Silent makes the stream end without any audio data.
	Silent bool
}

func NewMockProvider() *MockProvider {
	return &MockProvider{SampleRate: audio.DefaultSampleRate, Chunks: 3, PerChar: 20 * time.Millisecond}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) OpenStream(ctx context.Context, req Request) (audio.ChunkStream, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Silent {
		return audio.NewSliceStream(audio.Chunk{MIMEType: m.mime()}), nil
	}

	pcm := m.tone(len([]rune(strings.TrimSpace(req.Text))))
	n := m.Chunks
	if n <= 0 {
		n = 1
	}
	// Split on sample boundaries.
	step := (len(pcm)/2 + n - 1) / n * 2
	chunks := make([]audio.Chunk, 0, n)
	for off := 0; off < len(pcm); off += step {
		end := off + step
		if end > len(pcm) {
			end = len(pcm)
		}
		c := audio.Chunk{Data: base64.StdEncoding.EncodeToString(pcm[off:end])}
		if off == 0 {
			c.MIMEType = m.mime()
		}
		chunks = append(chunks, c)
	}
	return audio.NewSliceStream(chunks...), nil
}

func (m *MockProvider) rate() int {
	if m.SampleRate > 0 {
		return m.SampleRate
	}
	return audio.DefaultSampleRate
}

func (m *MockProvider) mime() string {
	return fmt.Sprintf("audio/L16;codec=pcm;rate=%d", m.rate())
}

func (m *MockProvider) tone(chars int) []byte {
	per := m.PerChar
	if per <= 0 {
		per = 20 * time.Millisecond
	}
	d := time.Duration(chars) * per
	if d < 250*time.Millisecond {
		d = 250 * time.Millisecond
	}
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	rate := m.rate()
	samples := int(int64(rate) * int64(d) / int64(time.Second))
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := 0.2 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return pcm
}
