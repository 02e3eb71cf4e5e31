package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrymomot/socialsync/core/social"
)

var styles = struct {
	title, dim, ok, err, liked, author lipgloss.Style
}{
	title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80")),
	dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")),
	err:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")),
	liked:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f472b6")),
	author: lipgloss.NewStyle().Bold(true),
}

var postBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1).
	Width(72)

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styles.ok.Render("✓ ")+fmt.Sprintf(format, args...))
}

func renderPost(p social.Post) string {
	heart := styles.dim.Render("♡")
	if p.IsLiked {
		heart = styles.liked.Render("♥")
	}
	head := styles.author.Render("@"+p.Author.Username) + " " + styles.dim.Render(p.ID)
	foot := styles.dim.Render(fmt.Sprintf("%s %d   comments %d   shares %d",
		heart, p.LikeCount, p.CommentCount, p.ShareCount))
	return postBox.Render(strings.Join([]string{head, p.Content, foot}, "\n"))
}

func renderComment(c social.Comment) string {
	indent := ""
	if c.ParentID != "" {
		indent = "  ↳ "
	}
	pending := ""
	if c.Pending {
		pending = styles.dim.Render(" (sending)")
	}
	return indent + styles.author.Render("@"+c.Author.Username) + " " + c.Text +
		" " + styles.dim.Render(c.ID) + pending
}
