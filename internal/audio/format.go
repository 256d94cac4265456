package audio

import (
	"strconv"
	"strings"
)

const (
	DefaultChannels      = 1
	DefaultSampleRate    = 24000
	DefaultBitsPerSample = 16

	// DefaultMIMEType is what the speech model emits when it does not say otherwise.
	DefaultMIMEType = "audio/L16;rate=24000"

	linearPCMMarker = "L16"
)

// Format describes how raw samples are laid out.
type Format struct {
	Channels      int `json:"channels"`
	SampleRate    int `json:"sample_rate"`
	BitsPerSample int `json:"bits_per_sample"`
}

func DefaultFormat() Format {
	return Format{
		Channels:      DefaultChannels,
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
	}
}

// ByteRate is the number of payload bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// BlockAlign is the size in bytes of one frame (one sample for every channel).
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ParseMIME derives a Format from a MIME string such as "audio/L16;rate=16000".
// Only 16-bit mono PCM is supported, so only the rate parameter is read.
// Malformed or missing input yields the defaults; it never fails.
func ParseMIME(mimeType string) Format {
	f := DefaultFormat()
	parts := strings.Split(mimeType, ";")
	for _, param := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || strings.TrimSpace(key) != "rate" {
			continue
		}
		rate, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || rate <= 0 {
			continue
		}
		f.SampleRate = rate
	}
	return f
}

// IsLinearPCM reports whether mimeType names raw L16 samples. An empty MIME
// type counts as linear PCM because that is the upstream default.
func IsLinearPCM(mimeType string) bool {
	return strings.TrimSpace(mimeType) == "" || strings.Contains(mimeType, linearPCMMarker)
}

// MediaType returns the "category/codec" part of a MIME string, lowercased.
func MediaType(mimeType string) string {
	head, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(head))
}
