package html

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/net/html/atom"

	"github.com/chrisuehlinger/cssparse/css"
	"github.com/chrisuehlinger/cssparse/network"
)

// SheetSource tells where a document stylesheet comes from.
type SheetSource int

const (
	StyleElement SheetSource = iota + 1 // <style>
	LinkElement                         // <link rel="stylesheet">
)

func (s SheetSource) String() string {
	switch s {
	case StyleElement:
		return "style"
	case LinkElement:
		return "link"
	}
	return "unknown"
}

// SheetRef is a stylesheet referenced by a document, in document order.
type SheetRef struct {
	Source  SheetSource
	Element *Node
	// Href is the resolved href of a <link>.
	Href string
	// Text is the content of a <style>.
	Text string
	// Media is the parsed media attribute; nil means all media.
	Media []string
	Title string
}

// InlineStyle is the parsed style attribute of an element.
type InlineStyle struct {
	Element      *Node
	Declarations []css.Declaration
}

// BaseURL returns the URL relative references in the document resolve
// against: the href of the first <base> element, resolved against
// documentURL, or documentURL itself.
func BaseURL(doc *Node, documentURL string) string {
	base := documentURL
	found := false
	doc.Walk(func(n *Node) bool {
		if found {
			return false
		}
		if n.IsHTMLElement(atom.Base) {
			if href, ok := n.LookupAttribute("href"); ok {
				if resolved, err := network.ResolveURL(documentURL, strings.TrimSpace(href)); err == nil {
					base = resolved
				}
				found = true
			}
		}
		return true
	})
	return base
}

// StyleSheets lists the <style> and <link rel="stylesheet"> elements of a
// document. Alternate stylesheets, disabled links and elements whose type is
// not text/css are left out.
func StyleSheets(doc *Node, documentURL string) []SheetRef {
	base := BaseURL(doc, documentURL)

	var refs []SheetRef
	doc.Walk(func(n *Node) bool {
		switch {
		case n.IsHTMLElement(atom.Template):
			return false
		case n.IsHTMLElement(atom.Style):
			if !isCSSType(n) {
				return false
			}
			refs = append(refs, SheetRef{
				Source:  StyleElement,
				Element: n,
				Text:    n.TextContent(),
				Media:   mediaAttribute(n.GetAttribute("media")),
				Title:   n.GetAttribute("title"),
			})
			return false
		case n.IsHTMLElement(atom.Link):
			href, ok := n.LookupAttribute("href")
			if !ok || strings.TrimSpace(href) == "" || !isStyleSheetLink(n) || !isCSSType(n) {
				return false
			}
			resolved, err := network.ResolveURL(base, strings.TrimSpace(href))
			if err != nil {
				return false
			}
			refs = append(refs, SheetRef{
				Source:  LinkElement,
				Element: n,
				Href:    resolved,
				Media:   mediaAttribute(n.GetAttribute("media")),
				Title:   n.GetAttribute("title"),
			})
			return false
		}
		return true
	})
	return refs
}

// InlineStyles parses the style attribute of every element that has one.
// Elements whose attribute holds no valid declaration are still listed.
func InlineStyles(doc *Node, opts ...css.Option) []InlineStyle {
	parser := css.NewParser(opts...)

	var styles []InlineStyle
	doc.Walk(func(n *Node) bool {
		if n.Type != ElementNode {
			return true
		}
		if value, ok := n.LookupAttribute("style"); ok {
			styles = append(styles, InlineStyle{
				Element:      n,
				Declarations: parser.ParseDeclarations(value),
			})
		}
		return !n.IsHTMLElement(atom.Template)
	})
	return styles
}

// LoadStyleSheets loads every stylesheet of a document in document order,
// following @import rules. A link that fails to load is left out and its
// error is returned together with the stylesheets that did load.
func LoadStyleSheets(ctx context.Context, loader *network.Loader, doc *Node, documentURL string) ([]*network.StyleSheet, error) {
	base := BaseURL(doc, documentURL)

	var (
		sheets []*network.StyleSheet
		errs   error
	)
	for _, ref := range StyleSheets(doc, documentURL) {
		if err := ctx.Err(); err != nil {
			return sheets, multierr.Append(errs, err)
		}

		var sheet *network.StyleSheet
		switch ref.Source {
		case StyleElement:
			sheet = loader.ParseStyleSheet(ctx, ref.Text, base)
		case LinkElement:
			loaded, err := loader.LoadStyleSheet(ctx, ref.Href)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("failed to load <link> %s: %w", ref.Href, err))
				continue
			}
			sheet = loaded
		}
		sheet.Media = ref.Media
		sheets = append(sheets, sheet)
	}
	return sheets, errs
}

func isStyleSheetLink(n *Node) bool {
	if n.HasAttribute("disabled") {
		return false
	}
	stylesheet := false
	for _, rel := range strings.Fields(strings.ToLower(n.GetAttribute("rel"))) {
		switch rel {
		case "stylesheet":
			stylesheet = true
		case "alternate":
			return false
		}
	}
	return stylesheet
}

// isCSSType reports whether the type attribute is absent, empty or names
// text/css.
func isCSSType(n *Node) bool {
	typ := strings.TrimSpace(n.GetAttribute("type"))
	if typ == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(typ)
	return err == nil && mediaType == "text/css"
}

// mediaAttribute parses a media attribute with the stylesheet parser's
// media query rules. An empty attribute or "all" applies to all media.
func mediaAttribute(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	sheet := css.ParseString("@media " + value + " {}")
	if sheet.Len() != 1 {
		return []string{strings.ToLower(value)}
	}
	rule, ok := sheet.Rule(0).(*css.MediaRule)
	if !ok {
		return []string{strings.ToLower(value)}
	}
	media := rule.Media()
	if len(media) == 1 && media[0] == "all" {
		return nil
	}
	return media
}
