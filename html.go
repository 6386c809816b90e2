package csssel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ProcessHTMLFile opens an HTML file, reads linked stylesheets, applies the CSS
// rules and returns the DOM structure.
func (c *CSS) ProcessHTMLFile(filename string) (*goquery.Document, error) {
	dir, fn := filepath.Split(filename)
	c.PushDir(dir)
	defer c.PopDir()

	filename, err := c.findFile(fn)
	if err != nil {
		return nil, err
	}

	r, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return c.processDocument(doc)
}

// ProcessHTMLChunk reads the HTML text. If there are linked style sheets (<link
// href=...) these are also read. After reading, the CSS is applied to the HTML
// DOM which is returned.
func (c *CSS) ProcessHTMLChunk(htmltext string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmltext))
	if err != nil {
		return nil, err
	}
	return c.processDocument(doc)
}

func (c *CSS) processDocument(doc *goquery.Document) (*goquery.Document, error) {
	var errcond error
	doc.Find(":root > head link").Each(func(i int, sel *goquery.Selection) {
		stylesheetfile, attExists := sel.Attr("href")
		if !attExists {
			return
		}
		block, err := c.tokenizeCSSFile(stylesheetfile)
		if err != nil {
			errcond = multierr.Append(errcond, err)
			return
		}
		c.addBlock(consumeBlock(block, false))
	})
	if errcond != nil {
		return nil, errcond
	}
	return c.ApplyCSS(doc)
}

// ApplyCSS sets the declarations of all collected rules as attributes on the
// matching nodes. The attribute key is the property name prefixed with "!".
// Rules are applied in the order they were added, so a later rule overrides an
// earlier one. Rules with an invalid selector are skipped and reported in the
// returned error, the document is styled by all other rules regardless.
func (c *CSS) ApplyCSS(doc *goquery.Document) (*goquery.Document, error) {
	var errs error
	for i, r := range c.sheet.Rules {
		sg, err := cascadia.ParseGroupWithPseudoElements(r.Selector)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: invalid selector %q: %w", i, r.Selector, err))
			continue
		}
		for _, sel := range sg {
			if pe := sel.PseudoElement(); pe != "" {
				c.log.Debug("Skipping pseudo-element", zap.Stringer("selector", sel), zap.String("pseudo-element", pe))
				continue
			}
			nodes := doc.FindMatcher(cascadia.Selector(sel.Match)).Nodes
			c.log.Debug("Applying rule", zap.Stringer("selector", sel), zap.Int("nodes", len(nodes)))
			for _, n := range nodes {
				for _, d := range r.Declarations {
					setAttribute(n, "!"+d.Property, d.Value)
				}
			}
		}
	}
	return doc, errs
}

func setAttribute(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// ResolveAttributes returns the styling attributes (those with a "!" prefix)
// as a map from property name to value.
func ResolveAttributes(attrs []html.Attribute) map[string]string {
	res := make(map[string]string)
	for _, a := range attrs {
		if prop, ok := strings.CutPrefix(a.Key, "!"); ok {
			res[prop] = a.Val
		}
	}
	return res
}
