package toon

import (
	"strconv"
)

// =========================
// Safe Access Helpers
// =========================

// Get walks path from n. Object steps match keys (the last duplicate wins),
// array steps are decimal indexes. Empty steps are skipped.
func Get(n Node, path ...string) (Node, bool) {
	cur := n
	for _, p := range path {
		if len(p) == 0 {
			continue
		}
		switch v := cur.(type) {
		case *Object:
			next, ok := v.Get(p)
			if !ok {
				return nil, false
			}
			cur = next
		case *Array:
			i, err := strconv.Atoi(p)
			elems := v.Elements()
			if err != nil || i < 0 || i >= len(elems) {
				return nil, false
			}
			cur = elems[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func GetUntyped(n Node, path ...string) (any, bool) {
	found, ok := Get(n, path...)
	if !ok {
		return nil, false
	}
	return ToUntyped(found), true
}

// ToUntyped converts a tree into plain Go values: nil, bool, float64,
// string, []any and map[string]any. Duplicate keys keep the last value.
func ToUntyped(n Node) any {
	switch v := n.(type) {
	case *Value:
		return v.V
	case *Array:
		elems := v.Elements()
		out := make([]any, len(elems))
		for i := range elems {
			out[i] = ToUntyped(elems[i])
		}
		return out
	case *Object:
		m := make(map[string]any, len(v.Pairs))
		for _, p := range v.Pairs {
			m[p.Key.Name] = ToUntyped(p.Val)
		}
		return m
	default:
		return nil
	}
}

func MustString(n Node) string {
	v := n.(*Value)
	return v.V.(string)
}

func MustNumber(n Node) float64 {
	v := n.(*Value)
	return v.V.(float64)
}

func MustBool(n Node) bool {
	v := n.(*Value)
	return v.V.(bool)
}

// Get walks path from the document root.
func (d *Document) Get(path ...string) (Node, bool) {
	return Get(d.Root, path...)
}
