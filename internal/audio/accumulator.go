package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoAudio is returned when a stream ends without any sample bytes.
var ErrNoAudio = errors.New("no audio data received")

var errFinalized = errors.New("accumulator already finalized")

// Chunk is one streamed piece of an audio response. Data is base64 text as
// delivered on the wire; chunks without data carry no samples.
type Chunk struct {
	MIMEType string
	Data     string
}

func (c Chunk) HasData() bool { return c.Data != "" }

// ChunkStream yields chunks in arrival order. Recv returns io.EOF after the
// last chunk.
type ChunkStream interface {
	Recv() (Chunk, error)
	Close() error
}

// ChunkInfo is reported to a Drain observer for every chunk that carried data.
type ChunkInfo struct {
	Seq      int
	Size     int
	Total    int
	MIMEType string
}

// Payload is the finalized result of an accumulation.
type Payload struct {
	Data     []byte
	MIMEType string
	Chunks   int
}

// Accumulator concatenates decoded chunk data. It belongs to a single request
// and is not safe for concurrent use.
type Accumulator struct {
	buf       bytes.Buffer
	mimeType  string
	chunks    int
	finalized bool
}

func NewAccumulator() *Accumulator { return &Accumulator{} }

// Add decodes c and appends its samples. The first non-empty MIME type wins,
// even on a chunk without data; later values are ignored. It returns the number of bytes appended.
func (a *Accumulator) Add(c Chunk) (int, error) {
	if a.finalized {
		return 0, errFinalized
	}
	if a.mimeType == "" && strings.TrimSpace(c.MIMEType) != "" {
		a.mimeType = strings.TrimSpace(c.MIMEType)
	}
	if !c.HasData() {
		return 0, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.Data))
	if err != nil {
		return 0, fmt.Errorf("decode chunk %d: %w", a.chunks, err)
	}
	a.buf.Write(raw)
	a.chunks++
	return len(raw), nil
}

func (a *Accumulator) Len() int         { return a.buf.Len() }
func (a *Accumulator) MIMEType() string { return a.mimeType }

// Finalize freezes the accumulator and returns its payload, or ErrNoAudio if
// nothing was accumulated.
func (a *Accumulator) Finalize() (Payload, error) {
	a.finalized = true
	if a.buf.Len() == 0 {
		return Payload{}, ErrNoAudio
	}
	return Payload{Data: a.buf.Bytes(), MIMEType: a.mimeType, Chunks: a.chunks}, nil
}

// Drain reads stream to the end and returns the accumulated payload. observe,
// when non-nil, is called once per chunk that carried data. The stream is
// closed before Drain returns.
func Drain(ctx context.Context, stream ChunkStream, observe func(ChunkInfo)) (Payload, error) {
	defer stream.Close()

	acc := NewAccumulator()
	for {
		if err := ctx.Err(); err != nil {
			return Payload{}, err
		}
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Payload{}, fmt.Errorf("receive chunk: %w", err)
		}
		n, err := acc.Add(chunk)
		if err != nil {
			return Payload{}, err
		}
		if n > 0 && observe != nil {
			observe(ChunkInfo{Seq: acc.chunks, Size: n, Total: acc.Len(), MIMEType: acc.MIMEType()})
		}
	}
	return acc.Finalize()
}

// SliceStream replays a fixed list of chunks. It backs the mock provider and tests.
type SliceStream struct {
	chunks []Chunk
	next   int
}

func NewSliceStream(chunks ...Chunk) *SliceStream {
	return &SliceStream{chunks: chunks}
}

func (s *SliceStream) Recv() (Chunk, error) {
	if s.next >= len(s.chunks) {
		return Chunk{}, io.EOF
	}
	c := s.chunks[s.next]
	s.next++
	return c, nil
}

func (s *SliceStream) Close() error { return nil }
