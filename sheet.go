package csssel

import (
	"io"
	"strings"
)

// Declaration is a single property: value pair.
type Declaration struct {
	Property string
	Value    string
}

// Decl is a shortcut for a Declaration literal.
func Decl(property, value string) Declaration {
	return Declaration{Property: property, Value: value}
}

// Rule is a selector with its declarations.
type Rule struct {
	Selector     string
	Declarations []Declaration
}

// Sheet is an ordered list of rules. The zero value is an empty sheet.
type Sheet struct {
	Rules []Rule
}

// Add appends a rule for the current state of sel. Later changes to sel do not
// affect the rule.
func (s *Sheet) Add(sel *Selector, decls ...Declaration) *Sheet {
	return s.AddRule(Rule{Selector: sel.String(), Declarations: decls})
}

// AddRule appends r.
func (s *Sheet) AddRule(r Rule) *Sheet {
	s.Rules = append(s.Rules, r)
	return s
}

// String returns the CSS text of the sheet.
func (s *Sheet) String() string {
	ret := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		ret = append(ret, r.String())
	}
	return strings.Join(ret, "\n")
}

// WriteTo writes the CSS text of the sheet followed by a newline to w. Nothing
// is written for an empty sheet.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	if len(s.Rules) == 0 {
		return 0, nil
	}
	n, err := io.WriteString(w, s.String()+"\n")
	return int64(n), err
}
