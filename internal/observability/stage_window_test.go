package observability

import "testing"

func TestStageWindowSnapshot(t *testing.T) {
	w := newStageWindow(8)
	w.Observe(StageSpeechFirstChunk, 500)
	w.Observe(StageSpeechFirstChunk, 700)
	w.Observe(StageSpeechFirstChunk, 900)
	w.ObserveIndicator("speech_cache_hit")
	w.ObserveIndicator("speech_cache_hit")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageSpeechFirstChunk {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageSpeechFirstChunk)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 1500 {
		t.Fatalf("TargetP95MS = %.2f, want 1500", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators = %+v, want one entry with count 2", snap.Indicators)
	}
}

func TestStageWindowWrapsAround(t *testing.T) {
	w := newStageWindow(2)
	for _, v := range []float64{10, 20, 30} {
		w.Observe(StagePlanGenerate, v)
	}
	snap := w.Snapshot()
	if snap.Stages[0].Samples != 2 {
		t.Fatalf("Samples = %d, want 2", snap.Stages[0].Samples)
	}
	if snap.Stages[0].AvgMS != 25 {
		t.Fatalf("AvgMS = %.2f, want 25", snap.Stages[0].AvgMS)
	}
}

func TestStageWindowOverTargetAndFilter(t *testing.T) {
	w := newStageWindow(8)
	for _, v := range []float64{1000, 1500, 1600, 2500} {
		w.Observe(StageSpeechFirstChunk, v)
	}
	w.Observe(StagePlanGenerate, 4000)

	snap := w.Snapshot(StageSpeechFirstChunk)
	if len(snap.Stages) != 1 || snap.Stages[0].Stage != StageSpeechFirstChunk {
		t.Fatalf("Stages = %+v, want only %s", snap.Stages, StageSpeechFirstChunk)
	}
	if got := snap.Stages[0].OverTarget; got != 2 {
		t.Fatalf("OverTarget = %d, want 2", got)
	}

	if all := w.Snapshot(); len(all.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(all.Stages))
	}
	if none := w.Snapshot("unknown"); len(none.Stages) != 0 {
		t.Fatalf("unknown stage filter returned %+v", none.Stages)
	}
}
