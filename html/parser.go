// Package html finds the stylesheets of an HTML document: <style> elements,
// <link rel="stylesheet"> references and style attributes. Documents are
// parsed with golang.org/x/net/html.
package html

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// NodeType represents the type of an HTML node.
type NodeType int

const (
	ErrorNode NodeType = iota
	TextNode
	DocumentNode
	ElementNode
	CommentNode
	DoctypeNode
)

// Attribute represents an HTML attribute.
type Attribute struct {
	Namespace string
	Key       string
	Value     string
}

// Node is a node of a parsed document.
type Node struct {
	Type       NodeType
	Data       string    // For elements: tag name; for text: text content
	DataAtom   atom.Atom // Atom for known HTML elements
	Namespace  string    // Namespace URI (for SVG, MathML, etc.)
	Attributes []Attribute

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

func (n *Node) appendChild(c *Node) {
	c.Parent = n
	c.PrevSibling = n.LastChild
	if n.LastChild != nil {
		n.LastChild.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
}

// Children returns a slice of all child nodes.
func (n *Node) Children() []*Node {
	var children []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

// GetAttribute returns the value of the specified attribute, or empty string if not found.
func (n *Node) GetAttribute(key string) string {
	v, _ := n.LookupAttribute(key)
	return v
}

// LookupAttribute returns the value of an attribute and whether it is
// present. Attribute names are matched case-insensitively.
func (n *Node) LookupAttribute(key string) (string, bool) {
	for _, attr := range n.Attributes {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, key) {
			return attr.Value, true
		}
	}
	return "", false
}

// HasAttribute returns true if the node has the specified attribute.
func (n *Node) HasAttribute(key string) bool {
	_, ok := n.LookupAttribute(key)
	return ok
}

// IsHTMLElement reports whether n is an element in the HTML namespace with
// the given tag.
func (n *Node) IsHTMLElement(a atom.Atom) bool {
	return n.Type == ElementNode && n.Namespace == "" && n.DataAtom == a
}

// TextContent returns the text content of a node and its descendants.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.collectTextContent(&sb)
	return sb.String()
}

func (n *Node) collectTextContent(sb *strings.Builder) {
	if n.Type == TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.collectTextContent(sb)
	}
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.Walk(fn)
	}
}

// Parse parses HTML from a string and returns a document node.
func Parse(htmlContent string) (*Node, error) {
	return ParseReader(strings.NewReader(htmlContent))
}

// ParseReader parses UTF-8 HTML from an io.Reader and returns a document node.
func ParseReader(r io.Reader) (*Node, error) {
	netNode, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return convertNode(netNode), nil
}

// ParseEncoded parses HTML in any encoding. The encoding is sniffed from a
// byte order mark, the charset parameter of contentType and <meta> tags, in
// that order. The encoding name is returned with the document; stylesheets
// that name no encoding of their own fall back to it.
func ParseEncoded(r io.Reader, contentType string) (*Node, string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read HTML: %w", err)
	}
	_, name, _ := charset.DetermineEncoding(content, contentType)

	utf8Reader, err := charset.NewReader(bytes.NewReader(content), contentType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode HTML: %w", err)
	}
	doc, err := ParseReader(utf8Reader)
	if err != nil {
		return nil, "", err
	}
	return doc, name, nil
}

// convertNode converts a golang.org/x/net/html node to our Node type.
func convertNode(n *html.Node) *Node {
	node := &Node{
		Type:      convertNodeType(n.Type),
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
	}
	for _, attr := range n.Attr {
		node.Attributes = append(node.Attributes, Attribute{
			Namespace: attr.Namespace,
			Key:       attr.Key,
			Value:     attr.Val,
		})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.appendChild(convertNode(c))
	}
	return node
}

func convertNodeType(nt html.NodeType) NodeType {
	switch nt {
	case html.TextNode:
		return TextNode
	case html.DocumentNode:
		return DocumentNode
	case html.ElementNode:
		return ElementNode
	case html.CommentNode:
		return CommentNode
	case html.DoctypeNode:
		return DoctypeNode
	default:
		return ErrorNode
	}
}
