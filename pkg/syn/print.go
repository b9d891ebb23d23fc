package syn

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print writes the tree back out as SCAD source. Reparsing the output
// yields a structurally equal tree (modulo whitespace).
func Print(w io.Writer, t *Tree) error {
	pw := &printer{w: w}
	for _, c := range t.Top {
		pw.call(c, 0)
	}
	return pw.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) call(c *Call, depth int) {
	ind := strings.Repeat("    ", depth)
	if c.Functor == "{" {
		p.printf("%s{\n", ind)
		for _, ch := range c.Body {
			p.call(ch, depth+1)
		}
		p.printf("%s}\n", ind)
		return
	}

	p.printf("%s%s%s(", ind, modString(c.Mod), c.Functor)
	for i, a := range c.Args {
		if i > 0 {
			p.printf(", ")
		}
		if a.Key != "" {
			p.printf("%s=", a.Key)
		}
		p.value(a.Value)
	}
	p.printf(")")

	if len(c.Body) == 0 {
		p.printf(";\n")
		return
	}
	p.printf(" {\n")
	for _, ch := range c.Body {
		p.call(ch, depth+1)
	}
	p.printf("%s}\n", ind)
}

func (p *printer) value(v Value) {
	switch v := v.(type) {
	case *IntValue:
		p.printf("%d", v.Value)
	case *FloatValue:
		p.printf("%s", FormatFloat(v.Value))
	case *StringValue:
		// Value holds the raw escaped text, so re-emit it verbatim.
		p.printf("\"%s\"", v.Value)
	case *IDValue:
		p.printf("%s", v.Name)
	case *RangeValue:
		p.printf("[")
		p.value(v.Start)
		if v.Inc != nil {
			p.printf(":")
			p.value(v.Inc)
		}
		p.printf(":")
		p.value(v.End)
		p.printf("]")
	case *ArrayValue:
		p.printf("[")
		for i, e := range v.Elems {
			if i > 0 {
				p.printf(",")
			}
			p.value(e)
		}
		p.printf("]")
	}
}

func modString(m Modifier) string {
	var b strings.Builder
	if m&ModRoot != 0 {
		b.WriteByte('!')
	}
	if m&ModDisable != 0 {
		b.WriteByte('*')
	}
	if m&ModBackground != 0 {
		b.WriteByte('%')
	}
	if m&ModHighlight != 0 {
		b.WriteByte('#')
	}
	return b.String()
}

// FormatFloat renders a float the way the dump writers do: shortest form
// that still reparses as a float token.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
