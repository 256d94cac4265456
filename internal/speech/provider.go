package speech

import (
	"context"
	"errors"

	"github.com/antoniostano/fitcoach/internal/audio"
)

// ErrNotConfigured is returned by providers that lack credentials. It is
// detected before any network call.
var ErrNotConfigured = errors.New("speech provider not configured")

// Request is one text-to-speech call.
type Request struct {
	Text  string
	Voice string
	Model string
}

// Provider opens a streamed audio response for a request.
type Provider interface {
	Name() string
	OpenStream(ctx context.Context, req Request) (audio.ChunkStream, error)
}

// Configurable is implemented by providers that can report missing
// credentials without a request.
type Configurable interface {
	Configured() bool
}

func configured(p Provider) bool {
	c, ok := p.(Configurable)
	return !ok || c.Configured()
}
