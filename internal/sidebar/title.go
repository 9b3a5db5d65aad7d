package sidebar

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nameSpacer = strings.NewReplacer("-", " ", "_", " ")
	markdown   = goldmark.New()
)

// firstHeading returns the text of the first level-1 heading in body.
func firstHeading(body []byte) string {
	root := markdown.Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = strings.TrimSpace(inlineText(h, body))
		return gmast.WalkStop, nil
	})
	return title
}

func inlineText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *gmast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(v.Value)
		case *gmast.CodeSpan:
			for child := v.FirstChild(); child != nil; child = child.NextSibling() {
				if t, ok := child.(*gmast.Text); ok {
					buf.Write(t.Segment.Value(source))
				}
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}

// titleFromName turns a file or directory name into a display title.
func titleFromName(name string) string {
	name = strings.TrimSuffix(name, ".markdown")
	name = strings.TrimSuffix(name, ".md")
	return cases.Title(language.English).String(strings.TrimSpace(nameSpacer.Replace(name)))
}
