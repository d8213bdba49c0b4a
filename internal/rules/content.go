package rules

import (
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/style"
)

// Known placeholder phrases, matched case-insensitively against trimmed
// content. Prefix matching covers "Lorem ipsum dolor sit amet".
var placeholderPhrases = []string{
	"sample heading",
	"sample text",
	"lorem ipsum",
	"link text",
	"placeholder",
	"your text here",
	"heading text",
	"button text",
	"insert text",
}

// shouldPrune drops placeholder leaves, src-less images, and empty
// placeholder-looking divs so dummy content never reaches the document.
func shouldPrune(n *component.Node, _ Context) bool {
	switch n.Type {
	case component.TypeHeading, component.TypeText, component.TypeLink:
		return isPlaceholderContent(textOf(n)) && len(n.Children) == 0
	case component.TypeImage:
		return propString(n, "src") == "" && propString(n, "aiImagePrompt") == ""
	case component.TypeDiv:
		return isPlaceholderDiv(n)
	}
	return false
}

func textOf(n *component.Node) string {
	if s := propString(n, "content"); s != "" {
		return s
	}
	return propString(n, "text")
}

func isPlaceholderContent(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if trimmed == "" {
		return true
	}
	for _, phrase := range placeholderPhrases {
		if strings.HasPrefix(trimmed, phrase) {
			return true
		}
	}
	return false
}

// isPlaceholderDiv matches an empty, childless div whose only styling is a
// neutral gray fill. Decorative divs are exempt.
func isPlaceholderDiv(n *component.Node) bool {
	if len(n.Children) > 0 || isDecorative(n) {
		return false
	}
	if textOf(n) != "" {
		return false
	}
	bg := propString(n, "backgroundColor")
	if bg == "" {
		return false
	}
	if !style.IsGrayish(bg) {
		return false
	}
	// A gradient, image, or explicit size means it is intentional.
	if propString(n, "backgroundGradient") != "" || propString(n, "backgroundImage") != "" {
		return false
	}
	return true
}
