package parsers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is an element of a parsed XML document with namespaces resolved.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*node
	chars    strings.Builder
}

// decodeTree parses payload into an element tree and returns its root.
// Decoding is lenient about HTML entities and accepts non-UTF-8 charsets.
func decodeTree(payload string) (*node, error) {
	dec := xml.NewDecoder(strings.NewReader(payload))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *node
		stack []*node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if root != nil {
				// Keep what parsed before trailing garbage.
				break
			}

			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					continue
				}

				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}

			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].chars.Write(t)
			}
		}
	}

	if root == nil {
		return nil, ErrNoRootElement
	}

	return root, nil
}

// is reports whether the node has the given namespace and local name.
func (n *node) is(name xml.Name) bool {
	return n.name.Local == name.Local && n.name.Space == name.Space
}

// attr returns the value of the attribute with the given local name.
func (n *node) attr(local string) string {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}

	return ""
}

// text returns the character data of the node and all its descendants.
func (n *node) text() string {
	if len(n.children) == 0 {
		return n.chars.String()
	}

	var b strings.Builder

	n.collectText(&b)

	return b.String()
}

func (n *node) collectText(b *strings.Builder) {
	b.WriteString(n.chars.String())

	for _, c := range n.children {
		c.collectText(b)
	}
}

// child returns the first direct child with the given name.
func (n *node) child(name xml.Name) *node {
	for _, c := range n.children {
		if c.is(name) {
			return c
		}
	}

	return nil
}

// childrenNamed returns all direct children with the given name.
func (n *node) childrenNamed(name xml.Name) []*node {
	var out []*node

	for _, c := range n.children {
		if c.is(name) {
			out = append(out, c)
		}
	}

	return out
}

// descendants returns every descendant, in document order, matching keep.
func (n *node) descendants(keep func(*node) bool) []*node {
	var out []*node

	for _, c := range n.children {
		if keep(c) {
			out = append(out, c)
		}

		out = append(out, c.descendants(keep)...)
	}

	return out
}
