package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/antoniostano/fitcoach/internal/audio"
)

// Cache keeps recently synthesized payloads zstd-compressed in memory.
// Payloads are stored before containerization so a hit goes through the
// same wrapping path as a fresh synthesis.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

type cacheEntry struct {
	mimeType   string
	chunks     int
	rawLen     int
	compressed []byte
}

func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("speech cache: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("speech cache encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("speech cache decoder: %w", err)
	}
	return &Cache{entries: entries, enc: enc, dec: dec}, nil
}

// CacheKey identifies a synthesis by voice, model and text.
func CacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Voice))
	h.Write([]byte{0})
	h.Write([]byte(req.Model))
	h.Write([]byte{0})
	h.Write([]byte(req.Text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Get(key string) (audio.Payload, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return audio.Payload{}, false
	}
	data, err := c.dec.DecodeAll(e.compressed, make([]byte, 0, e.rawLen))
	if err != nil {
		c.entries.Remove(key)
		return audio.Payload{}, false
	}
	return audio.Payload{Data: data, MIMEType: e.mimeType, Chunks: e.chunks}, true
}

func (c *Cache) Put(key string, p audio.Payload) {
	if len(p.Data) == 0 {
		return
	}
	c.entries.Add(key, cacheEntry{
		mimeType:   p.MIMEType,
		chunks:     p.Chunks,
		rawLen:     len(p.Data),
		compressed: c.enc.EncodeAll(p.Data, nil),
	})
}

func (c *Cache) Len() int { return c.entries.Len() }

// StoredBytes is the compressed size of all entries.
func (c *Cache) StoredBytes() int {
	total := 0
	for _, k := range c.entries.Keys() {
		if e, ok := c.entries.Peek(k); ok {
			total += len(e.compressed)
		}
	}
	return total
}

func (c *Cache) Close() {
	c.enc.Close()
	c.dec.Close()
}
