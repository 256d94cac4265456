package speech

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/antoniostano/fitcoach/internal/audio"
)

func TestMockProviderEmitsChunkedTone(t *testing.T) {
	m := NewMockProvider()
	stream, err := m.OpenStream(context.Background(), Request{Text: "Go."})
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	var chunks []audio.Chunk
	for {
		c, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		chunks = append(chunks, c)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if chunks[0].MIMEType == "" || chunks[1].MIMEType != "" || chunks[2].MIMEType != "" {
		t.Fatalf("MIME should ride on the first chunk only")
	}

	payload, err := audio.Drain(context.Background(), audio.NewSliceStream(chunks...), nil)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	// Short text is padded to the 250ms floor.
	if want := 24000 / 4 * 2; len(payload.Data) != want {
		t.Fatalf("len = %d, want %d", len(payload.Data), want)
	}
	if f := audio.ParseMIME(payload.MIMEType); f.SampleRate != 24000 {
		t.Fatalf("rate = %d, want 24000", f.SampleRate)
	}
}

func TestMockProviderSilentHasNoAudio(t *testing.T) {
	m := NewMockProvider()
	m.Silent = true
	stream, err := m.OpenStream(context.Background(), Request{Text: "x"})
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	if _, err := audio.Drain(context.Background(), stream, nil); !errors.Is(err, audio.ErrNoAudio) {
		t.Fatalf("Drain() error = %v, want ErrNoAudio", err)
	}
}
