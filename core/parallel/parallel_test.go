package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var seen [100]int32
			ParallelizeN(len(seen), workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, n := range seen {
				if n != 1 {
					t.Fatalf("item %d visited %d times", i, n)
				}
			}
		})
	}
}

func TestForEachReturnsLowestIndexError(t *testing.T) {
	err := ForEach(10, 4, "test", func(i int) error {
		if i == 7 || i == 3 {
			return fmt.Errorf("failed at %d", i)
		}
		return nil
	})
	if err == nil || err.Error() != "failed at 3" {
		t.Fatalf("ForEach() error = %v, want failed at 3", err)
	}
}

func TestForEachRecoversPanic(t *testing.T) {
	err := ForEach(4, 2, "tree.Fit", func(i int) error {
		if i == 2 {
			panic("boom")
		}
		return nil
	})

	var panicErr *errors.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %T: %v", err, err)
	}
	if panicErr.Operation != "tree.Fit" {
		t.Errorf("Operation = %q", panicErr.Operation)
	}
}
