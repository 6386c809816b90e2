package csssel

import (
	"fmt"
	"strings"

	"github.com/speedata/css/scanner"
)

func indent(s string) string {
	ret := []string{}
	for _, line := range strings.Split(s, "\n") {
		ret = append(ret, "    "+line)
	}
	return strings.Join(ret, "\n")
}

// String returns the rule as a CSS block.
func (r Rule) String() string {
	ret := []string{r.Selector + " {"}
	for _, d := range r.Declarations {
		ret = append(ret, "    "+d.Property+":"+d.Value+";")
	}
	ret = append(ret, "}")
	return strings.Join(ret, "\n")
}

func (b sBlock) String() string {
	ret := []string{}
	var firstline string
	if b.name != "" {
		firstline = fmt.Sprintf("@%s ", b.name)
	}
	firstline = firstline + b.componentValues.String() + " {"
	ret = append(ret, firstline)
	for _, v := range b.rules {
		ret = append(ret, "    "+v.key.String()+":"+v.value.String()+";")
	}
	for _, v := range b.childAtRules {
		ret = append(ret, indent(v.String()))
	}
	for _, v := range b.blocks {
		ret = append(ret, indent(v.String()))
	}
	ret = append(ret, "}")
	return strings.Join(ret, "\n")
}

// cssEscapeDoubleQuoted escapes backslashes and double quotes for use inside
// a double quoted CSS string.
func cssEscapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// String writes the tokens back as CSS source. Error and EOF tokens never
// reach a tokenstream, so Emit cannot fail. Strings are written by hand since
// Emit escapes every space in them.
func (t tokenstream) String() string {
	var b strings.Builder
	for _, tok := range t {
		if tok.Type == scanner.String {
			b.WriteString(`"` + cssEscapeDoubleQuoted(tok.Value) + `"`)
			continue
		}
		_ = tok.Emit(&b)
	}
	return b.String()
}
