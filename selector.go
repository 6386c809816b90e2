package csssel

import (
	"strconv"
	"strings"
)

// expression is the buffer shared by all handles of one selector chain. The
// two handles live inside the expression, so chaining never allocates.
type expression struct {
	buf   strings.Builder
	start Start
	sel   Selector
}

func (e *expression) add(parts ...string) *Selector {
	for _, p := range parts {
		e.buf.WriteString(p)
	}
	return &e.sel
}

func (e *expression) combine(combinator string) *Start {
	e.buf.WriteString(combinator)
	return &e.start
}

// compound holds the operations which are allowed at the start of a selector
// and after any other selection token.
type compound struct {
	e *expression
}

// Start is a selector chain that has no content yet or ends with a
// combinator. It cannot be turned into a string.
type Start struct {
	compound
}

// Selector is a selector chain with at least one selection token at its end.
type Selector struct {
	compound
}

// New returns an empty selector chain.
func New() *Start {
	e := &expression{}
	e.start.e = e
	e.sel.e = e
	return &e.start
}

// SelectAll appends the universal selector *.
func (s *Start) SelectAll() *Selector {
	return s.e.add("*")
}

// ByID appends *. The name is not used, so ByID selects the same elements as
// SelectAll.
func (s *Start) ByID(name string) *Selector {
	return s.e.add("*")
}

// ByTag appends *. Like ByID it ignores the name.
func (s *Start) ByTag(name string) *Selector {
	return s.e.add("*")
}

// ByClass appends .name.
func (c compound) ByClass(name string) *Selector {
	return c.e.add(".", name)
}

// ByAttr appends the attribute presence test [name].
func (c compound) ByAttr(name string) *Selector {
	return c.e.add("[", name, "]")
}

// ByAttrValue appends [name<op>value] and [name<op>value i] if
// caseInsensitive is set. The value is written as is, no quotes are added.
func (c compound) ByAttrValue(name string, op AttrOperator, value string, caseInsensitive bool) *Selector {
	c.e.add("[", name, op.String(), value)
	if caseInsensitive {
		c.e.add(" i")
	}
	return c.e.add("]")
}

// Hover appends the :hover pseudo-class.
func (c compound) Hover() *Selector {
	return c.e.add(":hover")
}

// NthChild appends :nth-child(n).
func (c compound) NthChild(n Nth) *Selector {
	return c.e.add(":nth-child(", string(n), ")")
}

// After appends the ::after pseudo-element.
func (c compound) After() *Selector {
	return c.e.add("::after")
}

// And starts a new selector in a selector list.
func (s *Selector) And() *Start {
	return s.e.combine(",\r\n")
}

// Child appends the child combinator.
func (s *Selector) Child() *Start {
	return s.e.combine(" > ")
}

// Descendant appends the descendant combinator (a single space).
func (s *Selector) Descendant() *Start {
	return s.e.combine(" ")
}

// Sibling appends the general sibling combinator.
func (s *Selector) Sibling() *Start {
	return s.e.combine(" ~ ")
}

// Adjacent appends the adjacent sibling combinator.
func (s *Selector) Adjacent() *Start {
	return s.e.combine(" + ")
}

// String returns the selector built so far.
func (s *Selector) String() string {
	return s.e.buf.String()
}

// AttrOperator is the comparison in an attribute selector.
type AttrOperator int

const (
	// Match is [attr=value].
	Match AttrOperator = iota
	// WordMatch is [attr~=value], value is one of a whitespace separated list.
	WordMatch
	// SubcodeMatch is [attr|=value], value exactly or followed by a hyphen.
	SubcodeMatch
	// StartsWith is [attr^=value].
	StartsWith
	// EndsWith is [attr$=value].
	EndsWith
	// Contains is [attr*=value].
	Contains
)

var attrOperators = [...]string{
	Match:        "=",
	WordMatch:    "~=",
	SubcodeMatch: "|=",
	StartsWith:   "^=",
	EndsWith:     "$=",
	Contains:     "*=",
}

// String returns the CSS punctuation of the operator.
func (op AttrOperator) String() string {
	if op < 0 || int(op) >= len(attrOperators) {
		return ""
	}
	return attrOperators[op]
}

// Nth is the argument of :nth-child().
type Nth string

// Keywords for NthChild.
const (
	Odd  Nth = "odd"
	Even Nth = "even"
)

// NthIndex returns the argument for the a-th child.
func NthIndex(a int) Nth {
	return Nth(strconv.Itoa(a))
}

// NthStep returns the argument an+b, for example 2n+3 or 2n-1.
func NthStep(a, b int) Nth {
	sign, abs := "+", uint64(b)
	if b < 0 {
		// -b overflows for math.MinInt, the unsigned negation does not.
		sign, abs = "-", -abs
	}
	return Nth(strconv.Itoa(a) + "n" + sign + strconv.FormatUint(abs, 10))
}
