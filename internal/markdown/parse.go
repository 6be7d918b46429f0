package markdown

import (
	"bytes"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// gfm parses GitHub flavoured markdown where a single newline is a line
// break and raw html passes through so <u> survives.
var gfm = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithUnsafe(),
	),
)

// Parse converts markdown text into a projection. It never fails: input the
// parser cannot handle comes back as one literal paragraph.
func Parse(text string) *html.Node {
	root := &html.Node{Type: html.DocumentNode}

	var buf bytes.Buffer
	if err := gfm.Convert([]byte(text), &buf); err != nil {
		logrus.Warnf("markdown: falling back to literal text: %v", err)
		return literal(root, text)
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(&buf, body)
	if err != nil {
		logrus.Warnf("markdown: falling back to literal text: %v", err)
		return literal(root, text)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func literal(root *html.Node, text string) *html.Node {
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	root.AppendChild(p)
	return root
}
