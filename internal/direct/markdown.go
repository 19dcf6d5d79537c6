package direct

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markdown renders the visible content of an HTML document as light
// markdown: headings, list items, links and images with absolute URLs.
// Scripts, styles and other non-content elements are dropped.
func Markdown(doc *html.Node, base *url.URL) string {
	w := &mdWriter{base: base}
	w.walk(doc)

	var lines []string
	for _, line := range strings.Split(w.b.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Title returns the document title, falling back to og:title and then
// the first h1.
func Title(doc *html.Node) string {
	d := goquery.NewDocumentFromNode(doc)
	if t := strings.TrimSpace(d.Find("title").First().Text()); t != "" {
		return t
	}
	if t, ok := d.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return strings.Join(strings.Fields(d.Find("h1").First().Text()), " ")
}

type mdWriter struct {
	b    strings.Builder
	base *url.URL
}

func (w *mdWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Head, atom.Iframe:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			w.b.WriteString("\n" + strings.Repeat("#", level) + " ")
			w.children(n)
			w.b.WriteString("\n")
			return
		case atom.Li:
			w.b.WriteString("\n- ")
			w.children(n)
			w.b.WriteString("\n")
			return
		case atom.A:
			text := textOf(n)
			href := w.resolve(attr(n, "href"))
			if text == "" || href == "" || strings.HasPrefix(href, "javascript:") {
				w.children(n)
				return
			}
			w.b.WriteString(" [" + text + "](" + href + ") ")
			return
		case atom.Img:
			if src := w.resolve(attr(n, "src")); src != "" {
				w.b.WriteString(" ![" + strings.TrimSpace(attr(n, "alt")) + "](" + src + ") ")
			}
			return
		case atom.Br:
			w.b.WriteString("\n")
			return
		case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Header,
			atom.Footer, atom.Nav, atom.Aside, atom.Ul, atom.Ol, atom.Table, atom.Tr,
			atom.Form, atom.Blockquote, atom.Figure, atom.Figcaption, atom.Dd, atom.Dt:
			w.b.WriteString("\n")
			w.children(n)
			w.b.WriteString("\n")
			return
		case atom.Td, atom.Th, atom.Span:
			w.b.WriteString(" ")
			w.children(n)
			w.b.WriteString(" ")
			return
		}
	}
	w.children(n)
}

func (w *mdWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *mdWriter) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if w.base != nil {
		u = w.base.ResolveReference(u)
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
