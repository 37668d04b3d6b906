package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 5 || s.lastBucket != -1 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s := NewProgressSampler(10); s.bucketSize != 10 {
		t.Fatalf("unexpected bucket size: %v", s.bucketSize)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(5)
	steps := []struct {
		percent float64
		want    bool
	}{
		{-1, false},
		{0, true},
		{1, false},
		{4.9, false},
		{5, true},
		{7, false},
		{23, true},
		{10, false},
		{100, true},
		{120, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
	s.Reset()
	if !s.ShouldLog(50) {
		t.Fatal("expected log after reset")
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}
