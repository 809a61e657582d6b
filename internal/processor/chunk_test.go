package processor

import (
	"testing"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

func makeRecords(n int) []models.PostRecord {
	out := make([]models.PostRecord, n)
	for i := range out {
		out[i] = models.PostRecord{Rank: i + 1, Title: "post"}
	}
	return out
}

func TestChunk_Sizes(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{name: "Twelve by five", n: 12, size: 5, want: []int{5, 5, 2}},
		{name: "Even split", n: 10, size: 5, want: []int{5, 5}},
		{name: "Fewer than size", n: 3, size: 5, want: []int{3}},
		{name: "Size one", n: 3, size: 1, want: []int{1, 1, 1}},
		{name: "No records", n: 0, size: 5, want: nil},
		{name: "Zero size", n: 5, size: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sets := Chunk(makeRecords(tt.n), tt.size)
			if len(sets) != len(tt.want) {
				t.Fatalf("Chunk() produced %d sets, want %d", len(sets), len(tt.want))
			}
			for i, set := range sets {
				if len(set) != tt.want[i] {
					t.Errorf("set %d has %d records, want %d", i, len(set), tt.want[i])
				}
			}
		})
	}
}

func TestChunk_Properties(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for size := 1; size <= 9; size++ {
			records := makeRecords(n)
			sets := Chunk(records, size)

			k := (n + size - 1) / size
			if len(sets) != k {
				t.Fatalf("n=%d size=%d: got %d sets, want %d", n, size, len(sets), k)
			}

			next := 1
			for i, set := range sets {
				want := size
				if i == k-1 {
					want = n - size*(k-1)
				}
				if len(set) != want {
					t.Fatalf("n=%d size=%d: set %d len %d, want %d", n, size, i, len(set), want)
				}
				for _, rec := range set {
					if rec.Rank != next {
						t.Fatalf("n=%d size=%d: order broken, got rank %d want %d", n, size, rec.Rank, next)
					}
					next++
				}
			}
			if next-1 != n {
				t.Fatalf("n=%d size=%d: saw %d records", n, size, next-1)
			}
		}
	}
}

func TestChunk_DoesNotAliasInput(t *testing.T) {
	records := makeRecords(4)
	sets := Chunk(records, 2)
	records[0].Title = "changed"
	if sets[0][0].Title != "post" {
		t.Error("Chunk() sets share storage with the input slice")
	}
}
