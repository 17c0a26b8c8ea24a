package spider

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var linkExpr = xpath.MustCompile("descendant-or-self::a[@href]")

// Document is a fetched page that can be queried with CSS selectors and
// XPath expressions.
type Document struct {
	URL    *url.URL
	Header http.Header
	Body   []byte

	base *url.URL
	root *html.Node
	doc  *goquery.Document
}

func NewDocument(rawURL string, header http.Header, body []byte) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse document url: %w", err)
	}

	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{
		URL:    u,
		Header: header,
		Body:   body,
		base:   u,
		root:   root,
		doc:    goquery.NewDocumentFromNode(root),
	}

	if n := htmlquery.FindOne(root, "//base[@href]"); n != nil {
		if b, err := u.Parse(strings.TrimSpace(htmlquery.SelectAttr(n, "href"))); err == nil {
			d.base = b
		}
	}

	return d, nil
}

// Select runs a CSS selector over the whole page.
func (d *Document) Select(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// XPath runs an XPath expression over the whole page.
func (d *Document) XPath(expr string) ([]*html.Node, error) {
	return htmlquery.QueryAll(d.root, expr)
}

// ExtractLinks returns the absolute http(s) links of the page in document
// order, without fragments or duplicates.
func (d *Document) ExtractLinks() []string {
	return d.links([]*html.Node{d.root})
}

// ExtractLinksIn is ExtractLinks restricted to the regions matched by scope.
func (d *Document) ExtractLinksIn(scope string) ([]string, error) {
	if scope == "" {
		return d.ExtractLinks(), nil
	}

	expr, err := xpath.Compile(scope)
	if err != nil {
		return nil, fmt.Errorf("compile scope %q: %w", scope, err)
	}

	return d.scopedLinks(expr), nil
}

func (d *Document) scopedLinks(expr *xpath.Expr) []string {
	return d.links(htmlquery.QuerySelectorAll(d.root, expr))
}

func (d *Document) links(regions []*html.Node) []string {
	seen := make(map[string]bool)
	var out []string

	for _, region := range regions {
		for _, a := range htmlquery.QuerySelectorAll(region, linkExpr) {
			abs, err := d.Resolve(htmlquery.SelectAttr(a, "href"))
			if err != nil || seen[abs] {
				continue
			}
			seen[abs] = true
			out = append(out, abs)
		}
	}

	return out
}

// Resolve turns a reference found in the page into an absolute http(s) URL.
func (d *Document) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	u, err := d.base.Parse(ref)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}
