package pkg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dzjyyds666/toonq/parse/toon"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Encode 按指定格式输出节点
func Encode(w io.Writer, format string, n toon.Node, indent int) error {
	switch format {
	case FormatJSON:
		return EncodeJSON(w, n, indent)
	case FormatYAML:
		return EncodeYAML(w, n, indent)
	case FormatTree:
		return EncodeTree(w, n)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// =========================
// JSON
// =========================

// EncodeJSON writes n as JSON. Object keys keep their source order (duplicates
// included) and numbers are written with their source text.
func EncodeJSON(w io.Writer, n toon.Node, indent int) error {
	var buf bytes.Buffer
	if err := appendJSON(&buf, n); err != nil {
		return err
	}
	out := buf.Bytes()
	if indent > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, out, "", strings.Repeat(" ", indent)); err != nil {
			return err
		}
		out = pretty.Bytes()
	}
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}

func appendJSON(buf *bytes.Buffer, n toon.Node) error {
	switch v := n.(type) {
	case *toon.Object:
		buf.WriteByte('{')
		for i, p := range v.Pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSONString(buf, p.Key.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendJSON(buf, p.Val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case *toon.Array:
		buf.WriteByte('[')
		for i, e := range v.Elements() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *toon.Value:
		switch v.Type {
		case toon.Kinds.Null:
			buf.WriteString("null")
		case toon.Kinds.Bool:
			buf.WriteString(strconv.FormatBool(v.V.(bool)))
		case toon.Kinds.Number:
			buf.WriteString(v.Raw)
		default:
			return appendJSONString(buf, v.V.(string))
		}
	default:
		return fmt.Errorf("unsupported node %T", n)
	}
	return nil
}

func appendJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// =========================
// YAML
// =========================

// EncodeYAML writes n as a YAML document built from an ordered yaml.Node tree.
func EncodeYAML(w io.Writer, n toon.Node, indent int) error {
	enc := yaml.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent(indent)
	}
	if err := enc.Encode(yamlNode(n)); err != nil {
		return err
	}
	return enc.Close()
}

func yamlNode(n toon.Node) *yaml.Node {
	switch v := n.(type) {
	case *toon.Object:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range v.Pairs {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key.Name}
			m.Content = append(m.Content, key, yamlNode(p.Val))
		}
		return m
	case *toon.Array:
		s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elements() {
			s.Content = append(s.Content, yamlNode(e))
		}
		return s
	case *toon.Value:
		return yamlScalar(v)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func yamlScalar(v *toon.Value) *yaml.Node {
	s := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Type {
	case toon.Kinds.Null:
		s.Tag, s.Value = "!!null", "null"
	case toon.Kinds.Bool:
		s.Tag, s.Value = "!!bool", strconv.FormatBool(v.V.(bool))
	case toon.Kinds.Number:
		s.Tag, s.Value = "!!float", v.Raw
		if !strings.ContainsAny(v.Raw, ".eE") {
			s.Tag = "!!int"
		}
	default:
		s.Tag, s.Value = "!!str", v.V.(string)
	}
	return s
}

// =========================
// Tree
// =========================

// EncodeTree writes an indented dump of the syntax tree with node kinds and
// source spans.
func EncodeTree(w io.Writer, n toon.Node) error {
	bw := bufio.NewWriter(w)
	writeTree(bw, n, "", 0)
	return bw.Flush()
}

func writeTree(w *bufio.Writer, n toon.Node, label string, depth int) {
	pad := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *toon.Object:
		fmt.Fprintf(w, "%s%sobject @%s\n", pad, label, v.Loc)
		for _, p := range v.Pairs {
			writeTree(w, p.Val, keyLabel(p.Key), depth+1)
		}
	case *toon.Array:
		h := v.Header
		fmt.Fprintf(w, "%s%sarray[%d] %s %s", pad, label, h.Length, h.Delimiter, v.Body)
		if h.Fields != nil {
			fmt.Fprintf(w, " {%s}", strings.Join(h.FieldNames(), ","))
		}
		fmt.Fprintf(w, " @%s\n", v.Loc)
		for i, item := range v.Items {
			writeTree(w, item, fmt.Sprintf("[%d] ", i), depth+1)
		}
		for i, r := range v.Rows {
			writeTree(w, r.Node(), fmt.Sprintf("[%d] %s ", i, rowName(r)), depth+1)
		}
	case *toon.Value:
		fmt.Fprintf(w, "%s%s%s %s @%s\n", pad, label, v.Type, v, v.Loc)
	}
}

func keyLabel(k *toon.Key) string {
	if k.Quoted {
		return strconv.Quote(k.Name) + ": "
	}
	return k.Name + ": "
}

func rowName(r toon.Row) string {
	switch r.(type) {
	case *toon.ValueRow:
		return "value-row"
	case *toon.MultiValueRow:
		return "multi-value-row"
	case *toon.ObjectRow:
		return "object-row"
	case *toon.TabularRow:
		return "tabular-row"
	}
	return "row"
}
