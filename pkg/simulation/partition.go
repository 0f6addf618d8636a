package simulation

import "fmt"

// Partition is a contiguous range [Start, End) of ray indices
type Partition struct {
	Index int
	Start int
	End   int
}

// Len returns the number of rays in the partition
func (p Partition) Len() int {
	return p.End - p.Start
}

func (p Partition) String() string {
	return fmt.Sprintf("partition %d [%d,%d)", p.Index, p.Start, p.End)
}

// Partitions splits [0,n) into w contiguous ranges whose lengths differ by
// at most one; the first n mod w ranges take the extra ray. w is clamped to
// [1, max(n,1)] so no range is empty unless n is zero.
func Partitions(n, w int) []Partition {
	if w < 1 {
		w = 1
	}
	if n > 0 && w > n {
		w = n
	}
	if n <= 0 {
		return []Partition{{Index: 0, Start: 0, End: 0}}
	}

	size := n / w
	extra := n % w
	partitions := make([]Partition, w)
	start := 0
	for i := range partitions {
		length := size
		if i < extra {
			length++
		}
		partitions[i] = Partition{Index: i, Start: start, End: start + length}
		start += length
	}
	return partitions
}

// PartitionError reports a partition that failed to complete
type PartitionError struct {
	Partition Partition
	Attempt   int
	Err       error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("%s failed on attempt %d: %v", e.Partition, e.Attempt, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}
