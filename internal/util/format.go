package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

// FormatScore renders scores above ten thousand as thousands with one decimal.
func FormatScore(score int) string {
	if score > 10000 {
		return fmt.Sprintf("%.1fk", float64(score)/1000)
	}
	return strconv.Itoa(score)
}

// HeaderText describes where the posts on screen come from, e.g.
// "hot posts from r/pics, r/aww, AND r/earthporn".
func HeaderText(listing models.ListingMode, source models.Source, headerType models.HeaderType) string {
	header := string(listing) + " posts from "

	if models.IsFrontpage(source) {
		return header + "the frontpage"
	}

	multi, ok := source.(models.Multiple)
	if !ok {
		return header + "r/" + models.JoinSource(source)
	}
	if headerType == models.HeaderChained {
		return header + "r/" + strings.Join(multi, "+")
	}
	return header + multiSubSentence(multi)
}

func multiSubSentence(subs []string) string {
	var b strings.Builder
	secondToLast := len(subs) - 2
	for i, sub := range subs {
		b.WriteString("r/")
		b.WriteString(sub)
		switch {
		case i == secondToLast:
			b.WriteString(", AND ")
		case i < secondToLast:
			b.WriteString(", ")
		}
	}
	return b.String()
}
