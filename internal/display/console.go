package display

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/pauljones0/reddit-rotator/internal/models"
	"github.com/pauljones0/reddit-rotator/internal/util"
)

var (
	colorPrimary   = lipgloss.Color("202") // Orange
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorError     = lipgloss.Color("196") // Red
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

var rankStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

var metaStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	PaddingLeft(4)

var warnStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

// Console prints the visible set to a writer.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Push(_ context.Context, p models.DisplayPush) error {
	out := Render(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, out)
	return err
}

// Render formats the visible set of p, honoring its field toggles.
func Render(p models.DisplayPush) string {
	var b strings.Builder

	if p.Header != "" {
		header := p.Header
		if len(p.Sets) > 1 {
			header += fmt.Sprintf(" [%d/%d]", p.ActiveIndex+1, len(p.Sets))
		}
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")
	}

	visible := p.Visible()
	if len(visible) == 0 {
		b.WriteString(warnStyle.Render("No posts available."))
		return b.String()
	}
	if !p.HasValidData {
		b.WriteString(warnStyle.Render("Last refresh failed; showing previous posts."))
		b.WriteString("\n")
	}

	for _, post := range visible {
		b.WriteString(renderPost(post, p.Toggles, p.DisplayType))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPost(post models.PostRecord, t models.Toggles, mode models.DisplayMode) string {
	var line strings.Builder
	if t.Rank {
		line.WriteString(rankStyle.Render(fmt.Sprintf("%2d.", post.Rank)))
		line.WriteString(" ")
	}
	if t.Title {
		line.WriteString(titleStyle.Render(post.Title))
	}

	var meta []string
	if t.Score {
		meta = append(meta, util.FormatScore(post.Score)+" points")
	}
	if t.NumComments {
		meta = append(meta, strconv.Itoa(post.NumComments)+" comments")
	}
	if t.Gilded && post.Gilded > 0 {
		meta = append(meta, strconv.Itoa(post.Gilded)+" gilded")
	}
	if t.Author && post.Author != "" {
		meta = append(meta, "by u/"+post.Author)
	}
	if t.Subreddit && post.Subreddit != "" {
		meta = append(meta, "in r/"+post.Subreddit)
	}
	if mode == models.DisplayImage && post.HasImage() {
		meta = append(meta, post.ImageURL)
	} else if t.Thumbnail && post.Thumbnail != "" {
		meta = append(meta, post.Thumbnail)
	}

	if len(meta) == 0 {
		return line.String()
	}
	return line.String() + "\n" + metaStyle.Render(strings.Join(meta, " | "))
}
