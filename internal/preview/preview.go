// Package preview picks one image variant out of a post's preview set.
package preview

import (
	"math"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

// tierDivisor maps a tier rank to a position: low=0, mid=.25, mid-high=.5,
// high=.75. The skew toward lower tiers is intentional.
const tierDivisor = 4

// roundAbove is the variant count above which the index is rounded instead
// of floored.
const roundAbove = 5

// Variant is one rendition of an image.
type Variant struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Variants returns the ascending resolution list with the source variant
// present exactly once at the end. The source is appended unless the last
// resolution already matches it in both dimensions.
func Variants(resolutions []Variant, source Variant) []Variant {
	out := make([]Variant, 0, len(resolutions)+1)
	out = append(out, resolutions...)
	if n := len(out); n > 0 {
		last := out[n-1]
		if last.Width == source.Width && last.Height == source.Height {
			return out
		}
	}
	return append(out, source)
}

// Position returns the [0,1) position of tier on the variant scale.
func Position(tier models.QualityTier) float64 {
	rank := tier.Rank()
	if rank < 0 {
		rank = 0
	}
	return float64(rank) / tierDivisor
}

// Index returns the variant index selected for tier out of n variants.
func Index(n int, tier models.QualityTier) int {
	if n <= 0 {
		return 0
	}
	scaled := Position(tier) * float64(n)

	var index int
	if n > roundAbove {
		index = int(math.Round(scaled))
	} else {
		index = int(math.Floor(scaled))
	}

	if index < 0 {
		return 0
	}
	if index > n-1 {
		return n - 1
	}
	return index
}

// Select returns the URL of the variant chosen for tier. variants must be
// sorted by ascending resolution; an empty list yields "".
func Select(variants []Variant, tier models.QualityTier) string {
	if len(variants) == 0 {
		return ""
	}
	return variants[Index(len(variants), tier)].URL
}
