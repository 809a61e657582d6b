package models

import (
	"encoding/json"
	"strings"
)

// ListingMode selects the ranking algorithm on the remote side.
type ListingMode string

const (
	ListingHot           ListingMode = "hot"
	ListingNew           ListingMode = "new"
	ListingRising        ListingMode = "rising"
	ListingTop           ListingMode = "top"
	ListingControversial ListingMode = "controversial"
	ListingBest          ListingMode = "best"
)

// DisplayMode selects between text headlines and image posts.
type DisplayMode string

const (
	DisplayHeadlines DisplayMode = "headlines"
	DisplayImage     DisplayMode = "image"
)

// QualityTier is the user's image resolution preference, in ascending order.
type QualityTier string

const (
	QualityLow     QualityTier = "low"
	QualityMid     QualityTier = "mid"
	QualityMidHigh QualityTier = "mid-high"
	QualityHigh    QualityTier = "high"
)

// QualityTiers lists every tier from lowest to highest.
var QualityTiers = []QualityTier{QualityLow, QualityMid, QualityMidHigh, QualityHigh}

// Rank returns the position of the tier in QualityTiers, or -1 if unknown.
func (q QualityTier) Rank() int {
	for i, t := range QualityTiers {
		if t == q {
			return i
		}
	}
	return -1
}

// HeaderType controls how multiple subreddits are named in the header.
type HeaderType string

const (
	HeaderSentence HeaderType = "sentence"
	HeaderChained  HeaderType = "chained"
)

// Source identifies where posts are listed from: either one name or an
// ordered set of names.
type Source interface {
	// Names returns the subreddit names in configured order.
	Names() []string
	isSource()
}

// Single is a Source naming one subreddit (or "frontpage").
type Single string

// Multiple is a Source combining several subreddits, in order.
type Multiple []string

func (s Single) Names() []string { return []string{string(s)} }
func (Single) isSource() {}

func (m Multiple) Names() []string { return append([]string(nil), m...) }
func (Multiple) isSource() {}

// ParseSource turns a comma separated list into a Source. A single name
// yields Single, several yield Multiple. Blank entries are dropped.
func ParseSource(raw string) Source {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	switch len(names) {
	case 0:
		return Single("")
	case 1:
		return Single(names[0])
	default:
		return Multiple(names)
	}
}

// JoinSource renders a Source for use in a request path.
func JoinSource(s Source) string {
	if s == nil {
		return ""
	}
	return strings.Join(s.Names(), "+")
}

// IsFrontpage reports whether the source resolves to the site frontpage.
func IsFrontpage(s Source) bool {
	joined := JoinSource(s)
	return joined == "" || joined == "frontpage"
}

// ReplacementRule is one title substitution. Pattern is a regular
// expression applied globally; CaseSensitive defaults to true.
type ReplacementRule struct {
	Pattern       string `json:"toReplace" validate:"required"`
	Replacement   string `json:"replacement"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// UnmarshalJSON applies the case sensitive default when the field is absent.
func (r *ReplacementRule) UnmarshalJSON(data []byte) error {
	type alias ReplacementRule
	aux := alias{CaseSensitive: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ReplacementRule(aux)
	return nil
}

// RefreshRequest carries the configuration snapshot needed for one fetch.
type RefreshRequest struct {
	Source         Source
	Listing        ListingMode
	Count          int
	Quality        QualityTier
	CharacterLimit *int
	Rules          []ReplacementRule
	DisplayType    DisplayMode
}
