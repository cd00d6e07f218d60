package conv

import (
	"strings"

	"github.com/inbucket/html2text"
)

// LooksLikeHTML is a cheap check for markup worth flattening.
func LooksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}

// HTMLToText flattens HTML into plain text. Non-HTML input is returned trimmed.
func HTMLToText(s string) (string, error) {
	if !LooksLikeHTML(s) {
		return strings.TrimSpace(s), nil
	}

	text, err := html2text.FromString(s, html2text.Options{
		OmitLinks:    true,
		PrettyTables: false,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
