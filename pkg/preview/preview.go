// Package preview renders announcement messages to HTML so a layout can be
// checked in a browser before it is posted.
package preview

import (
	"bytes"
	"fmt"
	"html"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/korjavin/mensaplan/pkg/models"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

const documentHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 50em; margin: 2em auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.6em; }
section { border-bottom: 1px solid #eee; margin-bottom: 2em; }
</style>
</head>
<body>
`

// HTML renders the messages as one HTML document, one section per message
func HTML(msgs []models.Message) ([]byte, error) {
	var buf bytes.Buffer
	title := "Preview"
	if len(msgs) > 0 {
		title = msgs[0].Subject
	}
	fmt.Fprintf(&buf, documentHead, html.EscapeString(title))

	for i, msg := range msgs {
		fmt.Fprintf(&buf, "<section>\n<p><small>%s</small></p>\n", html.EscapeString(msg.Subject))
		if err := markdown.Convert([]byte(msg.Body), &buf); err != nil {
			return nil, errors.Wrapf(err, "render message %d", i+1)
		}
		buf.WriteString("</section>\n")
	}

	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

// TableRows counts the body rows of all tables in a Markdown text, header
// rows excluded.
func TableRows(body string) int {
	doc := markdown.Parser().Parse(text.NewReader([]byte(body)))

	rows := 0
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == extast.KindTableRow {
			rows++
		}
		return ast.WalkContinue, nil
	})
	return rows
}
