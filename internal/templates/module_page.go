package templates

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

const metaPrefix = "routegen:"

// ParseModulePage reads an HTML module document. Exports come from
// <meta property="routegen:*"> tags; the html body is either a
// <script type="text/x-go-template" id="html"> element or a single
// <pre><code class="language-markdown"> block (which implies markdown).
func ParseModulePage(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse module HTML: %w", err)
	}

	meta := make(map[string]string)
	var (
		scripts        []string
		markdownBlocks []string
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if prop := getAttr(n, "property"); strings.HasPrefix(prop, metaPrefix) {
					meta[strings.TrimPrefix(prop, metaPrefix)] = getAttr(n, "content")
				}
			case "script":
				if getAttr(n, "id") == "html" {
					scripts = append(scripts, extractText(n))
				}
			case "code":
				if isMarkdownCodeNode(n) {
					markdownBlocks = append(markdownBlocks, strings.TrimSpace(extractText(n)))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	doc := &Document{
		URL:            meta["url"],
		URLTemplate:    meta["url_template"],
		ContentFile:    meta["content_file"],
		CollectionFile: meta["collection_file"],
	}

	if v, ok := meta["markdown"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("routegen:markdown: %w", err)
		}
		doc.Markdown = b
	}
	for key, dst := range map[string]*any{"content": &doc.Content, "collection": &doc.Collection, "per_page": &doc.PerPage} {
		raw, ok := meta[key]
		if !ok {
			continue
		}
		if err := yaml.Unmarshal([]byte(raw), dst); err != nil {
			return nil, fmt.Errorf("routegen:%s: %w", key, err)
		}
	}

	switch {
	case len(scripts) > 1 || len(markdownBlocks) > 1 || (len(scripts) == 1 && len(markdownBlocks) == 1):
		return nil, errors.New("module page contains more than one html body")
	case len(scripts) == 1:
		doc.HTML = strings.TrimSpace(scripts[0])
	case len(markdownBlocks) == 1:
		doc.HTML = markdownBlocks[0]
		doc.Markdown = true
	}
	return doc, nil
}

func isMarkdownCodeNode(n *html.Node) bool {
	if n == nil || n.Data != "code" {
		return false
	}
	if n.Parent == nil || n.Parent.Data != "pre" {
		return false
	}

	class := strings.ToLower(getAttr(n, "class"))
	return strings.Contains(class, "language-markdown") ||
		strings.Contains(class, "language-md") ||
		strings.Contains(class, "lang-markdown") ||
		strings.Contains(class, "lang-md")
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
