package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Record is one raw product record: flat element/attribute names mapped to
// their text content, before any canonicalisation.
type Record map[string]string

// googleNS is the Google Merchant feed namespace; its elements keep the
// conventional "g:" prefix so field priority tables can distinguish g:id
// from a plain id.
const googleNS = "base.google.com"

// element is a minimal generic XML tree node.
type element struct {
	name     string
	text     strings.Builder
	attrs    map[string]string
	children []*element
}

// shape is one known feed layout: a path from the document root to the
// repeated product element.
type shape struct {
	name string
	path []string
}

// Shapes are tried in order; the first one that yields records wins.
var shapes = []shape{
	{"rss", []string{"rss", "channel", "item"}},
	{"products", []string{"products", "product"}},
	{"root", []string{"root", "product"}},
	{"atom", []string{"feed", "entry"}},
	{"shop", []string{"SHOP", "SHOPITEM"}},
}

// Parse decodes a feed document and extracts raw product records. An
// unrecognised top-level shape yields an empty slice and no error; the sync
// operation is responsible for treating zero records as a failure. The
// returned string names the matched shape.
func Parse(data []byte) ([]Record, string, error) {
	root, err := decodeTree(data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding feed document: %w", err)
	}
	for _, s := range shapes {
		items := walk(root, s.path)
		if len(items) == 0 {
			continue
		}
		records := make([]Record, 0, len(items))
		for _, item := range items {
			records = append(records, flatten(item))
		}
		return records, s.name, nil
	}
	return []Record{}, "", nil
}

// decodeTree parses the document into a generic element tree under a
// synthetic root.
func decodeTree(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &element{name: ""}
	stack := []*element{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				if a.Name.Local == "xmlns" || a.Name.Space == "xmlns" {
					continue
				}
				if el.attrs == nil {
					el.attrs = make(map[string]string, len(t.Attr))
				}
				el.attrs[qualifiedName(a.Name)] = a.Value
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unbalanced document")
	}
	return root, nil
}

func qualifiedName(n xml.Name) string {
	if strings.Contains(n.Space, googleNS) {
		return "g:" + n.Local
	}
	return n.Local
}

// walk follows path through the tree; intermediate steps take the first
// matching child, the final step collects every match.
func walk(root *element, path []string) []*element {
	current := root
	for i, name := range path {
		if i == len(path)-1 {
			var items []*element
			for _, child := range current.children {
				if child.name == name {
					items = append(items, child)
				}
			}
			return items
		}
		var next *element
		for _, child := range current.children {
			if child.name == name {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return nil
}

// flatten maps an item element's direct children and attributes into a flat
// Record. The first non-empty value per key wins.
func flatten(item *element) Record {
	rec := make(Record, len(item.children)+len(item.attrs))
	for k, v := range item.attrs {
		setIfEmpty(rec, k, v)
	}
	for _, child := range item.children {
		setIfEmpty(rec, child.name, strings.TrimSpace(child.text.String()))
		for k, v := range child.attrs {
			setIfEmpty(rec, child.name+"."+k, v)
		}
	}
	return rec
}

func setIfEmpty(rec Record, key, value string) {
	if value == "" {
		return
	}
	if _, exists := rec[key]; !exists {
		rec[key] = value
	}
}
