// Package conv converts between markup flavours used by the transports.
package conv

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Telegram's HTML mode knows only a handful of inline tags, so block
// elements are flattened to text before sanitizing.
var blockReplacer = strings.NewReplacer(
	"<p>", "", "</p>", "\n",
	"<ul>", "", "</ul>", "",
	"<ol>", "", "</ol>", "",
	"<li>", "• ", "</li>", "\n",
	"<h1>", "<b>", "</h1>", "</b>\n",
	"<h2>", "<b>", "</h2>", "</b>\n",
	"<h3>", "<b>", "</h3>", "</b>\n",
	"<h4>", "<b>", "</h4>", "</b>\n",
	"<h5>", "<b>", "</h5>", "</b>\n",
	"<h6>", "<b>", "</h6>", "</b>\n",
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"<hr>", "\n", "<hr/>", "\n", "<hr />", "\n",
)

var telegramPolicy = newTelegramPolicy()

func newTelegramPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "s", "code", "pre", "blockquote")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	return p
}

// MarkdownToTelegramHTML renders Markdown into the HTML subset accepted by
// Telegram's ModeHTML.
func MarkdownToTelegramHTML(md []byte) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.SkipHTML})
	rendered := string(markdown.Render(doc, renderer))

	flat := blockReplacer.Replace(rendered)
	return strings.TrimSpace(telegramPolicy.Sanitize(flat))
}
