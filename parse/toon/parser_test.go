package toon

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func mustParse(src string) *Document {
	doc, err := ParseString(src)
	convey.So(err, convey.ShouldBeNil)
	return doc
}

func lenient() Options {
	opts := DefaultOptions()
	opts.Strict = false
	return opts
}

func arrayAt(doc *Document, key string) *Array {
	n, ok := doc.Get(key)
	convey.So(ok, convey.ShouldBeTrue)
	arr, ok := n.(*Array)
	convey.So(ok, convey.ShouldBeTrue)
	return arr
}

func TestObjects(t *testing.T) {
	convey.Convey("flat object", t, func() {
		doc := mustParse("a: 1\nb: 2\n")
		obj, ok := doc.Root.(*Object)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(obj.Keys(), convey.ShouldResemble, []string{"a", "b"})
		a, _ := obj.Get("a")
		convey.So(a.Kind(), convey.ShouldEqual, Kinds.Number)
		convey.So(MustNumber(a), convey.ShouldEqual, 1.0)
		b, _ := obj.Get("b")
		convey.So(MustNumber(b), convey.ShouldEqual, 2.0)
	})

	convey.Convey("nested objects close on dedent", t, func() {
		doc := mustParse("a:\n  b:\n    c: 1\n  d: 2\ne: 3\n")
		c, ok := doc.Get("a", "b", "c")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustNumber(c), convey.ShouldEqual, 1.0)
		d, _ := doc.Get("a", "d")
		convey.So(MustNumber(d), convey.ShouldEqual, 2.0)
		convey.So(doc.Root.(*Object).Keys(), convey.ShouldResemble, []string{"a", "e"})
	})

	convey.Convey("quoted strings and escapes", t, func() {
		doc := mustParse(`note: "a\"b"` + "\n")
		n, _ := doc.Get("note")
		convey.So(n.Kind(), convey.ShouldEqual, Kinds.String)
		convey.So(MustString(n), convey.ShouldEqual, `a"b`)
	})

	convey.Convey("object values keep delimiters as text", t, func() {
		doc := mustParse("a: x, y | z\n")
		n, _ := doc.Get("a")
		convey.So(n.Kind(), convey.ShouldEqual, Kinds.UnquotedString)
		convey.So(MustString(n), convey.ShouldEqual, "x, y | z")
	})

	convey.Convey("leading zeros fall back to strings", t, func() {
		doc := mustParse("zip: 0123\n")
		n, _ := doc.Get("zip")
		convey.So(n.Kind(), convey.ShouldEqual, Kinds.UnquotedString)
	})

	convey.Convey("quoted keys", t, func() {
		doc := mustParse(`"my key": 1` + "\n")
		p := doc.Root.(*Object).Pairs[0]
		convey.So(p.Key.Name, convey.ShouldEqual, "my key")
		convey.So(p.Key.Quoted, convey.ShouldBeTrue)
	})

	convey.Convey("duplicate keys are kept in order and the last wins on lookup", t, func() {
		doc := mustParse("a: 1\na: 2\n")
		convey.So(doc.Root.(*Object).Pairs, convey.ShouldHaveLength, 2)
		n, _ := doc.Get("a")
		convey.So(MustNumber(n), convey.ShouldEqual, 2.0)
	})

	convey.Convey("tabs after a colon are whitespace", t, func() {
		doc := mustParse("a:\t\tyes\n")
		n, _ := doc.Get("a")
		convey.So(MustString(n), convey.ShouldEqual, "yes")
	})

	convey.Convey("CRLF line endings", t, func() {
		doc := mustParse("a: 1\r\nb: x\r\n")
		n, _ := doc.Get("b")
		convey.So(MustString(n), convey.ShouldEqual, "x")
	})
}

func TestInlineArrays(t *testing.T) {
	convey.Convey("comma separated values", t, func() {
		doc := mustParse("items[3]: 1,2,3\n")
		arr := arrayAt(doc, "items")
		convey.So(arr.Header.Length, convey.ShouldEqual, 3)
		convey.So(arr.Header.Delimiter, convey.ShouldEqual, DelimComma)
		convey.So(arr.Body, convey.ShouldEqual, BodyInline)
		convey.So(ToUntyped(arr), convey.ShouldResemble, []any{1.0, 2.0, 3.0})
	})

	convey.Convey("declared delimiters", t, func() {
		doc := mustParse("a[2|]: x|y\nb[2\t]: x\ty\n")
		convey.So(arrayAt(doc, "a").Header.Delimiter, convey.ShouldEqual, DelimPipe)
		convey.So(arrayAt(doc, "b").Header.Delimiter, convey.ShouldEqual, DelimTab)
		convey.So(ToUntyped(arrayAt(doc, "b")), convey.ShouldResemble, []any{"x", "y"})
	})

	convey.Convey("any delimiter separates inline values", t, func() {
		doc := mustParse("a[3]: 1|2\t3\n")
		convey.So(arrayAt(doc, "a").Len(), convey.ShouldEqual, 3)
	})

	convey.Convey("array values stop at delimiters but keep spaces", t, func() {
		doc := mustParse(`a[3]: x y, "p,q", null` + "\n")
		arr := arrayAt(doc, "a")
		convey.So(ToUntyped(arr), convey.ShouldResemble, []any{"x y", "p,q", nil})
		convey.So(arr.Items[0].Context, convey.ShouldEqual, ArrayContext)
	})

	convey.Convey("empty arrays", t, func() {
		doc := mustParse("tags[0]:\nnext: 1\n")
		arr := arrayAt(doc, "tags")
		convey.So(arr.Body, convey.ShouldEqual, BodyEmpty)
		convey.So(arr.Len(), convey.ShouldEqual, 0)
		_, ok := doc.Get("next")
		convey.So(ok, convey.ShouldBeTrue)
	})

	convey.Convey("length mismatch is a semantic error", t, func() {
		_, err := ParseString("x[2]: 1\n")
		convey.So(errors.Is(err, ErrSemantic), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "expected 2, got 1")
		convey.So(err.Error(), convey.ShouldStartWith, "toon:1:2: SemanticError: ")

		_, err = ParseString("tags[2]:\n")
		convey.So(errors.Is(err, ErrSemantic), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "expected 2, got 0")
	})

	convey.Convey("malformed headers", t, func() {
		for _, src := range []string{
			"a[01]: 1\n",
			"a[-1]: 1\n",
			"a[x]: 1\n",
			"a[2 |]: 1|2\n",
			"a[2] {x}:\n  1\n",
			"x: 1\na [2]: 1,2\n",
		} {
			_, err := ParseString(src)
			convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
		}
	})
}

func TestTabularArrays(t *testing.T) {
	convey.Convey("rows zip with the field list", t, func() {
		doc := mustParse("users[2]{id,name}:\n  1,Alice\n  2,Bob\n")
		arr := arrayAt(doc, "users")
		convey.So(arr.Body, convey.ShouldEqual, BodyTabular)
		convey.So(arr.Header.FieldNames(), convey.ShouldResemble, []string{"id", "name"})

		rows := arr.TabularRows()
		convey.So(rows, convey.ShouldHaveLength, 2)
		convey.So(rows[0][0].Type, convey.ShouldEqual, Kinds.Number)
		convey.So(rows[0][1].Type, convey.ShouldEqual, Kinds.UnquotedString)
		convey.So(rows[1][1].V, convey.ShouldEqual, "Bob")

		row := arr.Rows[0].(*TabularRow)
		convey.So(row.Object.Keys(), convey.ShouldResemble, []string{"id", "name"})

		name, ok := doc.Get("users", "1", "name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(name), convey.ShouldEqual, "Bob")
	})

	convey.Convey("pipe delimited fields and rows", t, func() {
		doc := mustParse("r[1|]{a|b}:\n  x y|z\n")
		convey.So(ToUntyped(arrayAt(doc, "r")), convey.ShouldResemble,
			[]any{map[string]any{"a": "x y", "b": "z"}})
	})

	convey.Convey("row width must match the field list", t, func() {
		_, err := ParseString("r[1]{a,b}:\n  1\n")
		convey.So(errors.Is(err, ErrSemantic), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "has 1 values, field list declares 2")
	})

	convey.Convey("duplicate field names", t, func() {
		_, err := ParseString("r[1]{a,a}:\n  1,2\n")
		convey.So(errors.Is(err, ErrSemantic), convey.ShouldBeTrue)
	})

	convey.Convey("hyphen rows win over tabular rows", t, func() {
		doc := mustParse("r[2]{a,b}:\n  1,2\n  - x\n")
		arr := arrayAt(doc, "r")
		convey.So(arr.Body, convey.ShouldEqual, BodyRows)
		_, ok := arr.Rows[0].(*TabularRow)
		convey.So(ok, convey.ShouldBeTrue)
		_, ok = arr.Rows[1].(*ValueRow)
		convey.So(ok, convey.ShouldBeTrue)
	})

	convey.Convey("rows without a field list need a hyphen", t, func() {
		_, err := ParseString("r[1]:\n  1,2\n")
		convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
		var e *Error
		convey.So(errors.As(err, &e), convey.ShouldBeTrue)
		convey.So(e.Pos.Line, convey.ShouldEqual, 2)
		convey.So(e.Pos.Column, convey.ShouldEqual, 3)
	})

	convey.Convey("a bare row under a header is a syntax error whatever the length", t, func() {
		for _, src := range []string{"r[1]:\n  1,2\n", "r[0]:\n  1,2\n", "a:\n  r[0]:\n    x\n"} {
			_, err := ParseString(src)
			convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
			_, err = ParseWithOptions([]byte(src), lenient())
			convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
		}
	})
}

func TestListRows(t *testing.T) {
	convey.Convey("value, multi-value and object rows", t, func() {
		doc := mustParse("items[3]:\n  - 1\n  - a, b\n  - id: 7\n    name: x\n")
		arr := arrayAt(doc, "items")
		convey.So(arr.Body, convey.ShouldEqual, BodyRows)

		_, ok := arr.Rows[0].(*ValueRow)
		convey.So(ok, convey.ShouldBeTrue)
		multi, ok := arr.Rows[1].(*MultiValueRow)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(multi.Values, convey.ShouldHaveLength, 2)
		obj, ok := arr.Rows[2].(*ObjectRow)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(obj.Object.Keys(), convey.ShouldResemble, []string{"id", "name"})

		convey.So(ToUntyped(arr), convey.ShouldResemble, []any{
			1.0,
			[]any{"a", "b"},
			map[string]any{"id": 7.0, "name": "x"},
		})
	})

	convey.Convey("consecutive object rows", t, func() {
		doc := mustParse("items[2]:\n  - id: 1\n    name: a\n  - id: 2\n")
		arr := arrayAt(doc, "items")
		convey.So(arr.Len(), convey.ShouldEqual, 2)
		convey.So(arr.Rows[1].(*ObjectRow).Object.Keys(), convey.ShouldResemble, []string{"id"})
	})

	convey.Convey("a bare hyphen opens an object block", t, func() {
		doc := mustParse("items[1]:\n  -\n    id: 1\n    name: a\n")
		row, ok := arrayAt(doc, "items").Rows[0].(*ObjectRow)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(row.Object.Keys(), convey.ShouldResemble, []string{"id", "name"})
	})

	convey.Convey("the first field of a row may be nested", t, func() {
		doc := mustParse("items[1]:\n  - user:\n      name: a\n    role: admin\n")
		name, ok := doc.Get("items", "0", "user", "name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(name), convey.ShouldEqual, "a")
		role, _ := doc.Get("items", "0", "role")
		convey.So(MustString(role), convey.ShouldEqual, "admin")
	})

	convey.Convey("a nested first field closes before the next row", t, func() {
		doc := mustParse("items[2]:\n  - user:\n      name: a\n  - x\n")
		arr := arrayAt(doc, "items")
		convey.So(arr.Len(), convey.ShouldEqual, 2)
		_, ok := arr.Rows[1].(*ValueRow)
		convey.So(ok, convey.ShouldBeTrue)
	})

	convey.Convey("the first field of a row may be an array", t, func() {
		doc := mustParse("items[1]:\n  - tags[2]: a,b\n    id: 1\n")
		tags, ok := doc.Get("items", "0", "tags")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(tags.(*Array).Len(), convey.ShouldEqual, 2)
	})

	convey.Convey("an empty array as the first field keeps the row's fields", t, func() {
		doc := mustParse("items[1]:\n  - tags[0]:\n    id: 1\n")
		tags, ok := doc.Get("items", "0", "tags")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(tags.(*Array).Body, convey.ShouldEqual, BodyEmpty)
		id, _ := doc.Get("items", "0", "id")
		convey.So(MustNumber(id), convey.ShouldEqual, 1.0)
	})

	convey.Convey("fields after an inline first field align with its key", t, func() {
		for _, src := range []string{
			"items[1]:\n  - a: 1\n        b: 2\n",
			"items[1]:\n  - a: 1\n     b: 2\n",
			"items[1]:\n  - tags[2]: x,y\n      id: 1\n",
		} {
			_, err := ParseString(src)
			convey.So(errors.Is(err, ErrIndentation), convey.ShouldBeTrue)
			var e *Error
			convey.So(errors.As(err, &e), convey.ShouldBeTrue)
			convey.So(e.Pos.Line, convey.ShouldEqual, 3)
		}
	})

	convey.Convey("a bare hyphen without a block is an error", t, func() {
		_, err := ParseString("items[1]:\n  -\nnext: 1\n")
		convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
	})
}

func TestDocumentShapes(t *testing.T) {
	convey.Convey("empty documents are empty objects", t, func() {
		for _, src := range []string{"", "\n\n", "   \n"} {
			doc := mustParse(src)
			obj, ok := doc.Root.(*Object)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(obj.Pairs, convey.ShouldBeEmpty)
		}
	})

	convey.Convey("root arrays", t, func() {
		doc := mustParse("[2]: a,b\n")
		arr, ok := doc.Root.(*Array)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(ToUntyped(arr), convey.ShouldResemble, []any{"a", "b"})

		doc = mustParse("[2]:\n  - a\n  - b\n")
		convey.So(doc.Root.(*Array).Body, convey.ShouldEqual, BodyRows)
	})

	convey.Convey("root scalars", t, func() {
		doc := mustParse("hello world\n")
		convey.So(doc.Root.Kind(), convey.ShouldEqual, Kinds.UnquotedString)
		convey.So(MustString(doc.Root), convey.ShouldEqual, "hello world")

		doc = mustParse("42")
		convey.So(MustNumber(doc.Root), convey.ShouldEqual, 42.0)
	})

	convey.Convey("content after a root value", t, func() {
		_, err := ParseString("hello\nworld\n")
		convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
		convey.So(err.(*Error).Pos.Line, convey.ShouldEqual, 2)

		_, err = ParseString("[1]: a\nb: 1\n")
		convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
	})

	convey.Convey("structural errors", t, func() {
		cases := map[string]error{
			"a:\nb: 1\n":                  ErrSyntax,
			"a: 1\nb\n":                   ErrSyntax,
			"1abc: x\n":                   ErrSyntax,
			`"": x` + "\n":                ErrSyntax,
			"- a\n":                       ErrSyntax,
			"a: 1\n  b: 2\n":              ErrIndentation,
			"a:\n b:\n   c: 1\n  d: 2\n": ErrIndentation,
			"a: \"x\n":                    ErrLex,
			"a: - x\n":                    ErrLex,
		}
		for src, want := range cases {
			_, err := ParseString(src)
			convey.So(errors.Is(err, want), convey.ShouldBeTrue)
		}
	})

	convey.Convey("invalid UTF-8", t, func() {
		_, err := ParseWithOptions([]byte("a: 1\nb: \xff\n"), DefaultOptions())
		convey.So(errors.Is(err, ErrLex), convey.ShouldBeTrue)
		convey.So(err.(*Error).Pos.Line, convey.ShouldEqual, 2)
		convey.So(err.(*Error).Pos.Column, convey.ShouldEqual, 4)
	})

	convey.Convey("deep nesting is bounded", t, func() {
		var b strings.Builder
		for i := 0; i < 10; i++ {
			b.WriteString(strings.Repeat(" ", i) + "k:\n")
		}
		b.WriteString(strings.Repeat(" ", 10) + "v: 1\n")
		opts := DefaultOptions()
		opts.MaxDepth = 5
		_, err := ParseWithOptions([]byte(b.String()), opts)
		convey.So(errors.Is(err, ErrResourceLimit), convey.ShouldBeTrue)

		doc, err := ParseString(b.String())
		convey.So(err, convey.ShouldBeNil)
		convey.So(doc, convey.ShouldNotBeNil)
	})
}

func TestSpans(t *testing.T) {
	convey.Convey("pairs span from key to the end of their value", t, func() {
		doc := mustParse("a: 1\nb:\n  c: true\n")
		b := doc.Root.(*Object).Pairs[1]
		convey.So(b.Loc.Start, convey.ShouldResemble, Pos{Offset: 5, Line: 2, Column: 1})
		convey.So(b.Loc.End, convey.ShouldResemble, Pos{Offset: 17, Line: 3, Column: 10})

		c, _ := doc.Get("b", "c")
		convey.So(c.Location().Start.Column, convey.ShouldEqual, 6)
		convey.So(c.Location().String(), convey.ShouldEqual, "3:6-3:10")
	})

	convey.Convey("array spans cover header and body", t, func() {
		doc := mustParse("x[2]: a,b\n")
		arr := arrayAt(doc, "x")
		convey.So(arr.Header.Loc.Start.Column, convey.ShouldEqual, 2)
		convey.So(arr.Loc.End.Column, convey.ShouldEqual, 10)
	})
}

func TestLenientMode(t *testing.T) {
	convey.Convey("semantic errors become warnings", t, func() {
		doc, err := ParseWithOptions([]byte("x[2]: 1\nr[1]{a,a}:\n  1,2\n"), lenient())
		convey.So(err, convey.ShouldBeNil)
		convey.So(doc.Warnings, convey.ShouldHaveLength, 2)
		for _, w := range doc.Warnings {
			convey.So(errors.Is(w, ErrSemantic), convey.ShouldBeTrue)
		}
		convey.So(arrayAt(doc, "x").Len(), convey.ShouldEqual, 1)
	})

	convey.Convey("short tabular rows keep the values they have", t, func() {
		doc, err := ParseWithOptions([]byte("r[1]{a,b}:\n  1\n"), lenient())
		convey.So(err, convey.ShouldBeNil)
		convey.So(doc.Warnings, convey.ShouldHaveLength, 1)
		convey.So(ToUntyped(arrayAt(doc, "r")), convey.ShouldResemble, []any{map[string]any{"a": 1.0}})
	})

	convey.Convey("syntax errors stay terminal", t, func() {
		_, err := ParseWithOptions([]byte("a:\nb: 1\n"), lenient())
		convey.So(errors.Is(err, ErrSyntax), convey.ShouldBeTrue)
	})

	convey.Convey("warnings are logged", t, func() {
		var buf bytes.Buffer
		opts := lenient()
		opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		_, err := ParseWithOptions([]byte("x[2]: 1\n"), opts)
		convey.So(err, convey.ShouldBeNil)
		convey.So(buf.String(), convey.ShouldContainSubstring, "semantic violation tolerated")
		convey.So(buf.String(), convey.ShouldContainSubstring, "array closed")
		convey.So(buf.String(), convey.ShouldContainSubstring, "component=toon")
	})
}

func TestConcurrentParses(t *testing.T) {
	convey.Convey("parses share no state", t, func() {
		src := "users[2]{id,name}:\n  1,Alice\n  2,Bob\nmeta:\n  ok: true\n"
		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = Parse(strings.NewReader(src))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			convey.So(err, convey.ShouldBeNil)
		}
	})
}

func TestUntyped(t *testing.T) {
	convey.Convey("documents convert to plain values", t, func() {
		doc := mustParse("users[2]{id,name}:\n  1,Alice\n  2,Bob\nmeta:\n  ok: true\n  none: null\n")
		convey.So(ToUntyped(doc.Root), convey.ShouldResemble, map[string]any{
			"users": []any{
				map[string]any{"id": 1.0, "name": "Alice"},
				map[string]any{"id": 2.0, "name": "Bob"},
			},
			"meta": map[string]any{"ok": true, "none": nil},
		})

		v, ok := GetUntyped(doc.Root, "meta", "ok")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, true)

		_, ok = GetUntyped(doc.Root, "users", "5")
		convey.So(ok, convey.ShouldBeFalse)
		_, ok = GetUntyped(doc.Root, "meta", "ok", "deeper")
		convey.So(ok, convey.ShouldBeFalse)
	})
}
