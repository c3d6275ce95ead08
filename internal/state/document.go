package state

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Document is the ordered element list of a session. Order is z-order: later
// elements are drawn on top and hit-tested first.
//
// A Document is treated as immutable. Every method that changes it returns a
// new slice and leaves the receiver untouched, so snapshots stored in history
// never alias the live document.
type Document []Element

// Index returns the position of the element with the given id, or -1.
func (d Document) Index(id string) int {
	return slices.IndexFunc(d, func(e Element) bool { return e.ElementID() == id })
}

// Find returns the element with the given id.
func (d Document) Find(id string) (Element, bool) {
	if i := d.Index(id); i >= 0 {
		return d[i], true
	}
	return nil, false
}

// Has reports whether an element with the given id exists.
func (d Document) Has(id string) bool {
	return d.Index(id) >= 0
}

// Append returns a new document with e on top.
func (d Document) Append(e Element) Document {
	return append(slices.Clip(d), e)
}

// Replace returns a new document where the element sharing e's id is
// swapped for e. Unknown ids leave the document unchanged.
func (d Document) Replace(e Element) Document {
	i := d.Index(e.ElementID())
	if i < 0 {
		return d
	}
	out := slices.Clone(d)
	out[i] = e
	return out
}

// Remove returns a new document without the element with the given id.
func (d Document) Remove(id string) Document {
	return slices.DeleteFunc(slices.Clone(d), func(e Element) bool { return e.ElementID() == id })
}

// HitTest returns the topmost element whose bounds contain p.
func (d Document) HitTest(p Point) (Element, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if b, ok := Bounds(d[i]); ok && PointInBounds(p, b) {
			return d[i], true
		}
	}
	return nil, false
}

// Intersecting returns the ids of every element whose bounds intersect r,
// in document order.
func (d Document) Intersecting(r Rect) []string {
	var ids []string
	for _, e := range d {
		if b, ok := Bounds(e); ok && BoundsIntersect(b, r) {
			ids = append(ids, e.ElementID())
		}
	}
	return ids
}

// Equal reports value equality of two documents.
func (d Document) Equal(o Document) bool {
	return slices.EqualFunc(d, o, Equal)
}

// Retain returns the subset of ids present in d, preserving their order.
func (d Document) Retain(ids []string) []string {
	var kept []string
	for _, id := range ids {
		if d.Has(id) {
			kept = append(kept, id)
		}
	}
	return kept
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Element(d))
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	doc := make(Document, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		e, err := UnmarshalElement(r)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if _, dup := seen[e.ElementID()]; dup {
			return fmt.Errorf("element %d: duplicate id %q", i, e.ElementID())
		}
		seen[e.ElementID()] = struct{}{}
		doc = append(doc, e)
	}
	*d = doc
	return nil
}

// Encode serializes d to the drawingData wire form.
func Encode(d Document) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses drawingData. An empty string is an empty document.
func Decode(data string) (Document, error) {
	if data == "" {
		return Document{}, nil
	}
	var d Document
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return d, nil
}
