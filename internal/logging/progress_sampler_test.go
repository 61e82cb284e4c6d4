package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "encode") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSampler_ShouldLogStageChange(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "split") {
		t.Error("first stage should log")
	}
	if s.ShouldLog(0, "split") {
		t.Error("same stage and percent should not log again")
	}
	if !s.ShouldLog(0, "encode") {
		t.Error("different stage should log")
	}
	if s.lastStage != "encode" {
		t.Errorf("lastStage = %q, want encode", s.lastStage)
	}
}

func TestProgressSampler_BucketBoundaries(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{10, false},
		{25, true},
		{49.9, false},
		{50, true},
		{100, true},
		{100, false},
		{-1, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "encode"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}

	s.Reset()
	if !s.ShouldLog(0, "encode") {
		t.Fatal("expected log after reset")
	}
}
