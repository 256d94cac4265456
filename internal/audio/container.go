package audio

import (
	"encoding/base64"
	"strings"
)

const MediaTypeWAV = "audio/wav"

// Container is a finished, playable audio blob.
type Container struct {
	Data      []byte
	MediaType string
	Format    Format
	// DataLength is the number of sample bytes, excluding any header.
	DataLength int
}

// DataURI renders the container as a base64 data URI.
func (c Container) DataURI() string {
	return DataURI(c.MediaType, c.Data)
}

func DataURI(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// Containerizer turns a payload of a given MIME type into a playable container.
type Containerizer interface {
	Accepts(mimeType string) bool
	Wrap(payload []byte, mimeType string) Container
}

// LinearPCM wraps L16 samples (or samples with no declared type) in a WAV header.
type LinearPCM struct{}

func (LinearPCM) Accepts(mimeType string) bool { return IsLinearPCM(mimeType) }

func (LinearPCM) Wrap(payload []byte, mimeType string) Container {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultMIMEType
	}
	f := ParseMIME(mimeType)
	return Container{
		Data:       EncodeWAV(payload, f),
		MediaType:  MediaTypeWAV,
		Format:     f,
		DataLength: len(payload),
	}
}

// Passthrough returns already-containerized payloads unchanged.
type Passthrough struct{}

func (Passthrough) Accepts(string) bool { return true }

func (Passthrough) Wrap(payload []byte, mimeType string) Container {
	return Container{
		Data:       payload,
		MediaType:  MediaType(mimeType),
		DataLength: len(payload),
	}
}

// Registry picks the first Containerizer that accepts a MIME type.
type Registry []Containerizer

// DefaultRegistry wraps linear PCM as WAV and passes everything else through.
var DefaultRegistry = Registry{LinearPCM{}, Passthrough{}}

func (r Registry) Wrap(payload []byte, mimeType string) Container {
	for _, c := range r {
		if c.Accepts(mimeType) {
			return c.Wrap(payload, mimeType)
		}
	}
	return Passthrough{}.Wrap(payload, mimeType)
}

// Wrap containerizes payload with DefaultRegistry.
func Wrap(payload []byte, mimeType string) Container {
	return DefaultRegistry.Wrap(payload, mimeType)
}
