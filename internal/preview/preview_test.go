package preview

import (
	"fmt"
	"testing"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

func ascending(n int) []Variant {
	out := make([]Variant, n)
	for i := range out {
		w := 100 * (i + 1)
		out[i] = Variant{URL: fmt.Sprintf("https://i.example.com/%d.jpg", w), Width: w, Height: w / 2}
	}
	return out
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name string
		n    int
		tier models.QualityTier
		want int
	}{
		{name: "Mid-high of six rounds", n: 6, tier: models.QualityMidHigh, want: 3},
		{name: "High of six rounds", n: 6, tier: models.QualityHigh, want: 5},
		{name: "Mid of six rounds", n: 6, tier: models.QualityMid, want: 2},
		{name: "Low is always first", n: 6, tier: models.QualityLow, want: 0},
		{name: "Mid-high of five floors", n: 5, tier: models.QualityMidHigh, want: 2},
		{name: "High of five floors", n: 5, tier: models.QualityHigh, want: 3},
		{name: "High of one", n: 1, tier: models.QualityHigh, want: 0},
		{name: "High of eight", n: 8, tier: models.QualityHigh, want: 6},
		{name: "Unknown tier acts as low", n: 6, tier: "ultra", want: 0},
		{name: "Zero variants", n: 0, tier: models.QualityHigh, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Index(tt.n, tt.tier); got != tt.want {
				t.Errorf("Index(%d, %s) = %d, want %d", tt.n, tt.tier, got, tt.want)
			}
		})
	}
}

func TestIndex_AlwaysInRange(t *testing.T) {
	for n := 1; n <= 30; n++ {
		for _, tier := range models.QualityTiers {
			idx := Index(n, tier)
			if idx < 0 || idx > n-1 {
				t.Fatalf("Index(%d, %s) = %d out of range", n, tier, idx)
			}
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	variants := ascending(6)
	first := Select(variants, models.QualityMidHigh)
	for i := 0; i < 100; i++ {
		if got := Select(variants, models.QualityMidHigh); got != first {
			t.Fatalf("Select() changed between calls: %q vs %q", got, first)
		}
	}
	if first != variants[3].URL {
		t.Errorf("Select() = %q, want fourth-smallest %q", first, variants[3].URL)
	}
}

func TestSelect_Empty(t *testing.T) {
	if got := Select(nil, models.QualityHigh); got != "" {
		t.Errorf("Select(nil) = %q, want empty", got)
	}
}

func TestVariants(t *testing.T) {
	source := Variant{URL: "https://i.example.com/src.jpg", Width: 1920, Height: 1080}

	t.Run("Appends missing source", func(t *testing.T) {
		got := Variants(ascending(3), source)
		if len(got) != 4 || got[3] != source {
			t.Errorf("Variants() = %v, want source appended", got)
		}
	})

	t.Run("Keeps matching last resolution", func(t *testing.T) {
		res := append(ascending(2), Variant{URL: "https://i.example.com/full.jpg", Width: 1920, Height: 1080})
		got := Variants(res, source)
		if len(got) != 3 {
			t.Errorf("Variants() len = %d, want 3", len(got))
		}
		if got[2].URL != "https://i.example.com/full.jpg" {
			t.Errorf("last variant = %q, want the existing resolution", got[2].URL)
		}
	})

	t.Run("Width match alone is not enough", func(t *testing.T) {
		res := []Variant{{URL: "a", Width: 1920, Height: 1000}}
		if got := Variants(res, source); len(got) != 2 {
			t.Errorf("Variants() len = %d, want 2", len(got))
		}
	})

	t.Run("No resolutions", func(t *testing.T) {
		got := Variants(nil, source)
		if len(got) != 1 || got[0] != source {
			t.Errorf("Variants(nil) = %v, want [source]", got)
		}
	})

	t.Run("Does not alias input", func(t *testing.T) {
		res := make([]Variant, 2, 10)
		copy(res, ascending(2))
		_ = Variants(res, source)
		if res[:3][2] == source {
			t.Error("Variants() wrote into the caller's backing array")
		}
	})
}
