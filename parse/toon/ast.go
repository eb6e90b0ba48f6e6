// toon 包实现了 TOON（token-Oriented Object Notation）解析器：基于缩进的格式，数组显式声明长度，支持表格数组和可选的行内分隔符。
//
// 流水线：
// - 缩进跟踪：把原始行转换为缩进宽度和 indent/dedent 信号
// - 词法分析：把行内容切分为标点、带引号字符串和裸词
// - 语法分析：从记号流构建 Document 树
//
// 每个节点都记录其来源区间（Span）。
//
// 非目标：
// - 序列化 / 格式化输出
// - 注释
// - 流式增量解析
package toon

import (
	"fmt"
)

// =========================
// Positions
// =========================

// Pos is a location in the source. Line and Column are 1-based, Column
// counts bytes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Span is the half-open source range [Start, End) a node was parsed from.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string { return fmt.Sprintf("%s-%s", s.Start, s.End) }

func spanOf(start, end Span) Span { return Span{Start: start.Start, End: end.End} }

// =========================
// AST Definitions
// =========================

type Kind string

// Kinds lists every node kind produced by the parser.
var Kinds = struct {
	Null           Kind
	Bool           Kind
	Number         Kind
	String         Kind
	UnquotedString Kind
	Object         Kind
	Array          Kind
}{
	Null:           "null",
	Bool:           "bool",
	Number:         "number",
	String:         "string",
	UnquotedString: "unquoted_string",
	Object:         "object",
	Array:          "array",
}

// Node is implemented by *Value, *Object and *Array.
type Node interface {
	Kind() Kind
	Value() any
	Location() Span
}

// -------- Document --------

// Document is the root of a parse. Root is an *Object, an *Array or a *Value.
type Document struct {
	Root Node
	// Warnings holds semantic violations tolerated in lenient mode.
	Warnings []*Error
	Loc      Span
}

// -------- Value --------

// ScalarContext records which terminator rules produced a scalar. Object
// context scalars run to the end of the line; array context scalars also
// stop at ',', '|' and tab.
type ScalarContext uint8

const (
	ObjectContext ScalarContext = iota
	ArrayContext
)

// Value is a scalar. V holds nil, a bool, a float64 or a string.
type Value struct {
	Type    Kind
	V       any
	Raw     string
	Context ScalarContext
	Loc     Span
}

func (v *Value) Kind() Kind { return v.Type }

func (v *Value) Value() any { return v.V }

func (v *Value) Location() Span { return v.Loc }

func (v *Value) String() string {
	if v.Type == Kinds.String {
		return fmt.Sprintf("%q", v.V)
	}
	return v.Raw
}

// -------- Object --------

// Key is an object key or a tabular field name.
type Key struct {
	Name   string
	Quoted bool
	Loc    Span
}

// Pair is one key/value entry. Val is a *Value, *Object or *Array.
type Pair struct {
	Key *Key
	Val Node
	Loc Span
}

// Object keeps pairs in source order. Duplicate keys are kept.
type Object struct {
	Pairs []*Pair
	Loc   Span
}

func (*Object) Kind() Kind { return Kinds.Object }

func (o *Object) Value() any { return o.Pairs }

func (o *Object) Location() Span { return o.Loc }

// Get returns the value of the last pair named key.
func (o *Object) Get(key string) (Node, bool) {
	for i := len(o.Pairs) - 1; i >= 0; i-- {
		if o.Pairs[i].Key.Name == key {
			return o.Pairs[i].Val, true
		}
	}
	return nil, false
}

func (o *Object) Keys() []string {
	keys := make([]string, len(o.Pairs))
	for i, p := range o.Pairs {
		keys[i] = p.Key.Name
	}
	return keys
}

// -------- Array --------

type Delimiter string

const (
	DelimComma Delimiter = ","
	DelimTab   Delimiter = "\t"
	DelimPipe  Delimiter = "|"
)

func (d Delimiter) String() string {
	switch d {
	case DelimTab:
		return "tab"
	case DelimPipe:
		return "pipe"
	default:
		return "comma"
	}
}

// Header is the `[length<delim>]{fields}` annotation of an array. Fields is
// nil unless a field list was declared.
type Header struct {
	Length    int
	Delimiter Delimiter
	Fields    []*Key
	Loc       Span
}

// FieldNames returns the declared field list.
func (h *Header) FieldNames() []string {
	if h.Fields == nil {
		return nil
	}
	names := make([]string, len(h.Fields))
	for i, f := range h.Fields {
		names[i] = f.Name
	}
	return names
}

type BodyKind string

const (
	BodyEmpty   BodyKind = "empty"
	BodyInline  BodyKind = "inline"
	BodyRows    BodyKind = "rows"
	BodyTabular BodyKind = "tabular"
)

// Array is a headered array. Items is set for inline bodies, Rows for block
// bodies. A block body is BodyTabular when every row is a *TabularRow.
type Array struct {
	Header *Header
	Body   BodyKind
	Items  []*Value
	Rows   []Row
	Loc    Span
}

func (*Array) Kind() Kind { return Kinds.Array }

func (a *Array) Value() any { return a.Elements() }

func (a *Array) Location() Span { return a.Loc }

// Len is the number of parsed top-level elements.
func (a *Array) Len() int {
	if a.Body == BodyInline {
		return len(a.Items)
	}
	return len(a.Rows)
}

// Elements returns the array elements as nodes. Multi-value rows become
// inline arrays and tabular rows become their implicit objects.
func (a *Array) Elements() []Node {
	out := make([]Node, 0, a.Len())
	if a.Body == BodyInline {
		for _, v := range a.Items {
			out = append(out, v)
		}
		return out
	}
	for _, r := range a.Rows {
		out = append(out, r.Node())
	}
	return out
}

// TabularRows returns the raw value lists of the tabular rows.
func (a *Array) TabularRows() [][]*Value {
	var rows [][]*Value
	for _, r := range a.Rows {
		if t, ok := r.(*TabularRow); ok {
			rows = append(rows, t.Values)
		}
	}
	return rows
}

// -------- Rows --------

// Row is one element of a block array body.
type Row interface {
	Node() Node
	Location() Span
	row()
}

// ValueRow is `- value`.
type ValueRow struct {
	Val *Value
	Loc Span
}

// MultiValueRow is `- v1, v2, ...`.
type MultiValueRow struct {
	Values []*Value
	Loc    Span
}

// ObjectRow is `- key: value` or `-` followed by an indented object.
type ObjectRow struct {
	Object *Object
	Loc    Span
}

// TabularRow is a delimited line zipped positionally with the header fields.
type TabularRow struct {
	Values []*Value
	Object *Object
	Loc    Span
}

func (r *ValueRow) Node() Node      { return r.Val }
func (r *ValueRow) Location() Span  { return r.Loc }
func (*ValueRow) row()              {}
func (r *ObjectRow) Node() Node     { return r.Object }
func (r *ObjectRow) Location() Span { return r.Loc }
func (*ObjectRow) row()             {}

func (r *MultiValueRow) Node() Node {
	return &Array{
		Header: &Header{Length: len(r.Values), Delimiter: DelimComma, Loc: r.Loc},
		Body:   BodyInline,
		Items:  r.Values,
		Loc:    r.Loc,
	}
}
func (r *MultiValueRow) Location() Span { return r.Loc }
func (*MultiValueRow) row()             {}

func (r *TabularRow) Node() Node     { return r.Object }
func (r *TabularRow) Location() Span { return r.Loc }
func (*TabularRow) row()             {}
