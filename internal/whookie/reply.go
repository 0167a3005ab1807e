package whookie

import (
	"fmt"
	"html"
	"strings"
)

// ReplyStream renders a titled table of rows in either HTML or plain text.
// The /kelpie/localkv handler builds its per-bucket tables through it; the
// /dirman and /dirman/entry handlers write their HTML directly. A
// DataObject Dumper (internal/dataobject) returns a plain string and is not
// handed a ReplyStream.
type ReplyStream interface {
	Table(title string, headers []string, rows [][]string) string
}

type htmlReplyStream struct{}

// NewHTMLReplyStream builds a ReplyStream that renders an HTML table.
func NewHTMLReplyStream() ReplyStream { return htmlReplyStream{} }

func (htmlReplyStream) Table(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2><table border=\"1\"><tr>", html.EscapeString(title))
	for _, h := range headers {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(h))
	}
	b.WriteString("</tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

type textReplyStream struct{}

// NewTextReplyStream builds a ReplyStream that renders a plain-text table,
// used by CLI tools and logs where HTML markup would just be noise.
func NewTextReplyStream() ReplyStream { return textReplyStream{} }

func (textReplyStream) Table(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(&b, strings.Join(row, "\t"))
	}
	return b.String()
}
