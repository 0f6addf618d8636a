package simulation

import (
	"errors"
	"testing"
)

func TestPartitions(t *testing.T) {
	tests := []struct {
		name    string
		n, w    int
		lengths []int
	}{
		{"even split", 12, 4, []int{3, 3, 3, 3}},
		{"remainder to the first partitions", 10, 4, []int{3, 3, 2, 2}},
		{"single worker", 7, 1, []int{7}},
		{"more workers than rays", 3, 8, []int{1, 1, 1}},
		{"zero workers treated as one", 5, 0, []int{5}},
		{"no rays", 0, 4, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Partitions(tt.n, tt.w)
			if len(parts) != len(tt.lengths) {
				t.Fatalf("Expected %d partitions, got %d", len(tt.lengths), len(parts))
			}
			next := 0
			for i, p := range parts {
				if p.Index != i {
					t.Errorf("Partition %d has index %d", i, p.Index)
				}
				if p.Start != next {
					t.Errorf("Partition %d starts at %d, expected %d", i, p.Start, next)
				}
				if p.Len() != tt.lengths[i] {
					t.Errorf("Partition %d has %d rays, expected %d", i, p.Len(), tt.lengths[i])
				}
				next = p.End
			}
			if tt.n > 0 && next != tt.n {
				t.Errorf("Partitions end at %d, expected %d", next, tt.n)
			}
		})
	}
}

func TestPartitions_SizesDifferByAtMostOne(t *testing.T) {
	for n := 1; n <= 50; n++ {
		for w := 1; w <= 12; w++ {
			parts := Partitions(n, w)
			lo, hi := parts[0].Len(), parts[0].Len()
			for _, p := range parts {
				lo = min(lo, p.Len())
				hi = max(hi, p.Len())
			}
			if hi-lo > 1 {
				t.Errorf("n=%d w=%d: sizes range from %d to %d", n, w, lo, hi)
			}
			if lo == 0 {
				t.Errorf("n=%d w=%d: empty partition", n, w)
			}
		}
	}
}

func TestPartitionError(t *testing.T) {
	cause := errors.New("boom")
	err := &PartitionError{Partition: Partition{Index: 2, Start: 10, End: 15}, Attempt: 3, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected PartitionError to unwrap to its cause")
	}
	want := "partition 2 [10,15) failed on attempt 3: boom"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestStats_Merge(t *testing.T) {
	var a, b Stats
	a.Record(true, true)
	a.Record(false, false)
	b.Record(true, false)

	merged := a.Merge(b)
	want := Stats{Rays: 3, HitAny: 2, HitCritical: 1}
	if merged != want {
		t.Errorf("Expected %+v, got %+v", want, merged)
	}
	if merged != b.Merge(a) {
		t.Error("Expected merge to be order independent")
	}
	if (Stats{}).Merge(Stats{}) != (Stats{}) {
		t.Error("Expected empty merge to be zero")
	}

	wantCritical := 100.0 / 3
	if diff := merged.HitCriticalPercent() - wantCritical; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected %.4f%%, got %.4f%%", wantCritical, merged.HitCriticalPercent())
	}
}
