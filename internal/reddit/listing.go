package reddit

import (
	"html"

	"github.com/pauljones0/reddit-rotator/internal/preview"
)

// listingResponse mirrors the subset of the listing JSON the client reads.
// Pointers distinguish absent objects from empty ones.
type listingResponse struct {
	Data *listingData `json:"data"`
}

type listingData struct {
	Children *[]child `json:"children"`
}

type child struct {
	Data *postData `json:"data"`
}

type postData struct {
	Title       string       `json:"title"`
	Score       int          `json:"score"`
	NumComments int          `json:"num_comments"`
	Gilded      int          `json:"gilded"`
	Author      string       `json:"author"`
	Subreddit   string       `json:"subreddit"`
	Thumbnail   string       `json:"thumbnail"`
	Permalink   string       `json:"permalink"`
	URL         string       `json:"url"`
	Over18      bool         `json:"over_18"`
	Stickied    bool         `json:"stickied"`
	Preview     *previewData `json:"preview"`
}

type previewData struct {
	Images []previewImage `json:"images"`
}

type previewImage struct {
	Source      *preview.Variant  `json:"source"`
	Resolutions []preview.Variant `json:"resolutions"`
}

// defaultThumbnails are placeholder values that mean "no real thumbnail".
var defaultThumbnails = map[string]bool{
	"":        true,
	"default": true,
	"self":    true,
	"nsfw":    true,
	"spoiler": true,
	"image":   true,
}

// hasImage reports whether the post carries a real thumbnail and a preview
// source image.
func (p *postData) hasImage() bool {
	if defaultThumbnails[p.Thumbnail] {
		return false
	}
	return p.Preview != nil && len(p.Preview.Images) > 0 && p.Preview.Images[0].Source != nil
}

// imageVariants returns the ascending variant list for the first preview
// image, with URLs unescaped.
func (p *postData) imageVariants() []preview.Variant {
	img := p.Preview.Images[0]
	variants := preview.Variants(img.Resolutions, *img.Source)
	for i := range variants {
		variants[i].URL = html.UnescapeString(variants[i].URL)
	}
	return variants
}
