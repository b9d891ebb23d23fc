package syn

import (
	"bytes"
	"testing"
)

// structEqual compares two trees ignoring locations and whitespace.
func structEqual(a, b []*Call) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !callEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func callEqual(a, b *Call) bool {
	if a.Functor != b.Functor || a.Mod != b.Mod || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].Key != b.Args[i].Key || !valueEqual(a.Args[i].Value, b.Args[i].Value) {
			return false
		}
	}
	return structEqual(a.Body, b.Body)
}

func valueEqual(a, b Value) bool {
	switch av := a.(type) {
	case *IntValue:
		bv, ok := b.(*IntValue)
		return ok && av.Value == bv.Value
	case *FloatValue:
		bv, ok := b.(*FloatValue)
		return ok && av.Value == bv.Value
	case *StringValue:
		bv, ok := b.(*StringValue)
		return ok && av.Value == bv.Value
	case *IDValue:
		bv, ok := b.(*IDValue)
		return ok && av.Name == bv.Name
	case *RangeValue:
		bv, ok := b.(*RangeValue)
		if !ok || !valueEqual(av.Start, bv.Start) || !valueEqual(av.End, bv.End) {
			return false
		}
		if (av.Inc == nil) != (bv.Inc == nil) {
			return false
		}
		return av.Inc == nil || valueEqual(av.Inc, bv.Inc)
	case *ArrayValue:
		bv, ok := b.(*ArrayValue)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !valueEqual(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func TestPrintRoundTrip(t *testing.T) {
	srcs := []string{
		"cube(10);",
		"sphere(r=1.5, $fn=8);",
		"union() { cube([1,2,3], center=true); translate([0,0,-1.5]) cylinder(h=3, r1=2, r2=0); }",
		"difference() { cube(10); sphere(4); }",
		"!#cube(1);",
		`f("hello", [1:2:10], [1,2,3], x);`,
		`f("a\"b");`,
		"{ cube(1); }",
	}
	for _, src := range srcs {
		first := mustParse(t, src)
		var buf bytes.Buffer
		if err := Print(&buf, first); err != nil {
			t.Fatalf("Print(%q) failed: %v", src, err)
		}
		second, err := Parse("test.scad", buf.Bytes())
		if err != nil {
			t.Fatalf("reparse of %q failed: %v\nprinted:\n%s", src, err, buf.String())
		}
		if !structEqual(first.Top, second.Top) {
			t.Errorf("round trip of %q not structurally equal\nprinted:\n%s", src, buf.String())
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
