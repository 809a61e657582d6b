package models

import "time"

// PostRecord represents one normalized, display-ready post.
// ImageURL is empty when no image variant could be resolved.
type PostRecord struct {
	Rank        int    `json:"rank" validate:"gte=1"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	NumComments int    `json:"numComments" validate:"gte=0"`
	Gilded      int    `json:"gilded" validate:"gte=0"`
	Author      string `json:"author"`
	Subreddit   string `json:"subreddit"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ImageURL    string `json:"imageURL,omitempty" validate:"omitempty,url"`

	Permalink string `json:"permalink,omitempty"`
	URL       string `json:"url,omitempty"`
	Domain    string `json:"domain,omitempty"`
	NSFW      bool   `json:"nsfw,omitempty"`
}

// HasImage reports whether an image variant was resolved for the post.
func (p PostRecord) HasImage() bool {
	return p.ImageURL != ""
}

// PostSet is a contiguous group of posts shown together.
type PostSet []PostRecord

// PushReason tells a display surface why it is receiving a new state.
type PushReason string

const (
	PushDeploy   PushReason = "deploy"
	PushRotate   PushReason = "rotate"
	PushFallback PushReason = "fallback"
)

// DisplayPush is the state handed to a display surface on every deploy and
// every rotation advance.
type DisplayPush struct {
	Sets         []PostSet   `json:"sets"`
	ActiveIndex  int         `json:"activeIndex"`
	HasValidData bool        `json:"hasValidData"`
	Header       string      `json:"header,omitempty"`
	Toggles      Toggles     `json:"toggles"`
	DisplayType  DisplayMode `json:"displayType"`
	Reason       PushReason  `json:"reason"`
	Generation   int         `json:"generation"`
	PushedAt     time.Time   `json:"pushedAt"`
}

// Visible returns the set currently on screen, or nil when there is none.
func (d DisplayPush) Visible() PostSet {
	if d.ActiveIndex < 0 || d.ActiveIndex >= len(d.Sets) {
		return nil
	}
	return d.Sets[d.ActiveIndex]
}

// Toggles controls which post fields a display surface renders.
type Toggles struct {
	Header      bool `json:"header"`
	Rank        bool `json:"rank"`
	Score       bool `json:"score"`
	NumComments bool `json:"numComments"`
	Gilded      bool `json:"gilded"`
	Author      bool `json:"author"`
	Subreddit   bool `json:"subreddit"`
	Thumbnail   bool `json:"thumbnail"`
	Title       bool `json:"title"`
}

// ShowAll switches on every field toggle. The header toggle is left as is.
func (t Toggles) ShowAll() Toggles {
	return Toggles{
		Header:      t.Header,
		Rank:        true,
		Score:       true,
		NumComments: true,
		Gilded:      true,
		Author:      true,
		Subreddit:   true,
		Thumbnail:   true,
		Title:       true,
	}
}
