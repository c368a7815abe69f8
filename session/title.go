package session

import (
	"strings"

	"github.com/rivo/uniseg"
)

const (
	// DefaultTitle of a session whose title has not been derived yet.
	DefaultTitle = "New Chat"

	maxTitleLength = 50
	titleEllipsis  = "..."
)

// DeriveTitle computes a title from the first user message with content.
func DeriveTitle(messages []*Message) string {
	content := ""
	for _, message := range messages {
		if message == nil || strings.TrimSpace(message.Content) == "" {
			continue
		}
		if message.Role == "user" {
			content = message.Content
			break
		}
		if content == "" {
			content = message.Content
		}
	}
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return DefaultTitle
	}
	if uniseg.GraphemeClusterCount(content) <= maxTitleLength {
		return content
	}

	var sb strings.Builder
	graphemes := uniseg.NewGraphemes(content)
	for i := 0; i < maxTitleLength && graphemes.Next(); i++ {
		sb.WriteString(graphemes.Str())
	}
	return strings.TrimSpace(sb.String()) + titleEllipsis
}
