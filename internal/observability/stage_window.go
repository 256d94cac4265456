package observability

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

// Latency stages tracked in the rolling window.
const (
	StagePlanGenerate     = "plan_generate"
	StageSpeechFirstChunk = "speech_first_chunk"
	StageSpeechTotal      = "speech_total"
)

// stageTargets are the p95 latency objectives in milliseconds.
var stageTargets = map[string]float64{
	StageSpeechFirstChunk: 1500,
	StageSpeechTotal:      12000,
	StagePlanGenerate:     30000,
}

// StageStats summarizes the recent latency samples of one request stage.
type StageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
	// OverTarget counts windowed samples slower than the target.
	OverTarget int `json:"over_target,omitempty"`
}

type Indicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
	Indicators  []Indicator  `json:"indicators,omitempty"`
}

// ring keeps the last cap(values) samples of a stage.
type ring struct {
	values []float64
	next   int
	last   float64
}

func (r *ring) add(v float64, size int) {
	r.last = v
	if len(r.values) < size {
		r.values = append(r.values, v)
		return
	}
	r.values[r.next] = v
	r.next = (r.next + 1) % size
}

func (r *ring) stats(stage string) StageStats {
	sorted := slices.Clone(r.values)
	slices.Sort(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	target := stageTargets[stage]
	over := 0
	if target > 0 {
		idx, _ := slices.BinarySearch(sorted, math.Nextafter(target, math.Inf(1)))
		over = len(sorted) - idx
	}
	return StageStats{
		Stage:       stage,
		Samples:     len(sorted),
		LastMS:      round2(r.last),
		AvgMS:       round2(sum / float64(len(sorted))),
		P50MS:       round2(quantile(sorted, 0.50)),
		P95MS:       round2(quantile(sorted, 0.95)),
		P99MS:       round2(quantile(sorted, 0.99)),
		TargetP95MS: target,
		OverTarget:  over,
	}
}

type stageWindow struct {
	mu         sync.RWMutex
	size       int
	stages     map[string]*ring
	indicators map[string]int
}

func newStageWindow(size int) *stageWindow {
	if size <= 0 {
		size = 256
	}
	return &stageWindow{
		size:       size,
		stages:     make(map[string]*ring),
		indicators: make(map[string]int),
	}
}

func (w *stageWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.stages[stage]
	if !ok {
		r = &ring{values: make([]float64, 0, w.size)}
		w.stages[stage] = r
	}
	r.add(ms, w.size)
}

func (w *stageWindow) ObserveIndicator(name string) {
	name = strings.TrimSpace(name)
	if w == nil || name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

// Snapshot summarizes the window. With names given, only those stages are
// reported; indicators are always included.
func (w *stageWindow) Snapshot(names ...string) StageSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := StageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.size,
		Stages:      []StageStats{},
	}
	for _, stage := range sortedKeys(w.stages) {
		if len(names) > 0 && !slices.Contains(names, stage) {
			continue
		}
		if r := w.stages[stage]; len(r.values) > 0 {
			snap.Stages = append(snap.Stages, r.stats(stage))
		}
	}
	for _, name := range sortedKeys(w.indicators) {
		snap.Indicators = append(snap.Indicators, Indicator{Name: name, Count: w.indicators[name]})
	}
	return snap
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := math.Max(0, math.Min(1, q)) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
