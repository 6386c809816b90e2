package csssel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// Errors returned by Build. They are wrapped with the position of the step.
var (
	ErrStartOnly           = errors.New("step is only allowed at the start of a selector or after a combinator")
	ErrMisplacedCombinator = errors.New("combinator must follow a selection")
	ErrIncomplete          = errors.New("selector is empty or ends with a combinator")
	ErrAttrValue           = errors.New("attribute operator and value must be given together")
	ErrUnknownStep         = errors.New("unknown selector step")
	ErrUnknownKey          = errors.New("unknown key in step argument")
)

// Step kinds as written in a definition.
const (
	StepAll        = "all"
	StepID         = "id"
	StepTag        = "tag"
	StepClass      = "class"
	StepAttr       = "attr"
	StepHover      = "hover"
	StepNthChild   = "nth-child"
	StepAfter      = "after"
	StepAnd        = "and"
	StepChild      = "child"
	StepDescendant = "descendant"
	StepSibling    = "sibling"
	StepAdjacent   = "adjacent"
)

// Step is one call on the selector builder. In YAML a step without argument is
// a plain string ("all", "hover", "child", ...), a step with argument is a
// mapping with a single key:
//
//	- class: warning
//	- attr: {name: lang, op: "|=", value: en}
//	- nth-child: {a: 2, b: 1}
type Step struct {
	Kind            string
	Name            string
	Op              string // operator punctuation or name, empty for a presence test
	Value           *string
	CaseInsensitive bool
	Nth             Nth
	err             error
}

type attrStep struct {
	Name  string  `yaml:"name"`
	Op    string  `yaml:"op"`
	Value *string `yaml:"value"`
	I     bool    `yaml:"i"`
}

type nthStep struct {
	A int  `yaml:"a"`
	B *int `yaml:"b"`
}

// decodeArg decodes a mapping argument into v and rejects keys outside
// allowed, which Decode would otherwise drop.
func decodeArg(arg *yaml.Node, v any, allowed ...string) error {
	if arg.Kind == yaml.MappingNode {
	keys:
		for i := 0; i < len(arg.Content); i += 2 {
			k := arg.Content[i]
			for _, a := range allowed {
				if k.Value == a {
					continue keys
				}
			}
			return fmt.Errorf("line %d: %q: %w", k.Line, k.Value, ErrUnknownKey)
		}
	}
	return arg.Decode(v)
}

// UnmarshalYAML implements yaml.Unmarshaler. Malformed arguments do not fail
// decoding, Build reports them.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		s.Kind = value.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: selector step must be a string or a mapping", value.Line)
	}
	if len(value.Content) != 2 {
		return fmt.Errorf("line %d: selector step must have exactly one key", value.Line)
	}
	s.Kind = value.Content[0].Value
	arg := value.Content[1]
	switch s.Kind {
	case StepID, StepTag, StepClass:
		s.err = arg.Decode(&s.Name)
	case StepAttr:
		if arg.Kind == yaml.ScalarNode {
			s.Name = arg.Value
			return nil
		}
		var a attrStep
		if s.err = decodeArg(arg, &a, "name", "op", "value", "i"); s.err == nil {
			s.Name, s.Op, s.Value, s.CaseInsensitive = a.Name, a.Op, a.Value, a.I
		}
	case StepNthChild:
		if arg.Kind == yaml.ScalarNode {
			s.Nth, s.err = parseNth(arg.Value)
			return nil
		}
		var n nthStep
		if s.err = decodeArg(arg, &n, "a", "b"); s.err != nil {
			break
		}
		if n.B == nil {
			s.Nth = NthIndex(n.A)
		} else {
			s.Nth = NthStep(n.A, *n.B)
		}
	}
	return nil
}

func parseNth(arg string) (Nth, error) {
	switch Nth(arg) {
	case Odd, Even:
		return Nth(arg), nil
	}
	a, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("nth-child argument %q is neither odd, even nor a number", arg)
	}
	return NthIndex(a), nil
}

var attrOperatorNames = map[string]AttrOperator{
	"match":         Match,
	"word-match":    WordMatch,
	"subcode-match": SubcodeMatch,
	"starts-with":   StartsWith,
	"ends-with":     EndsWith,
	"contains":      Contains,
}

// ParseAttrOperator returns the operator for its CSS punctuation ("^=") or its
// name ("starts-with").
func ParseAttrOperator(s string) (AttrOperator, bool) {
	if op, ok := attrOperatorNames[s]; ok {
		return op, true
	}
	for op, punct := range attrOperators {
		if punct == s {
			return AttrOperator(op), true
		}
	}
	return 0, false
}

func (c compound) apply(st Step) (*Selector, error) {
	switch st.Kind {
	case StepClass:
		return c.ByClass(st.Name), nil
	case StepAttr:
		if (st.Op == "") != (st.Value == nil) || (st.Op == "" && st.CaseInsensitive) {
			return nil, ErrAttrValue
		}
		if st.Op == "" {
			return c.ByAttr(st.Name), nil
		}
		op, ok := ParseAttrOperator(st.Op)
		if !ok {
			return nil, fmt.Errorf("attribute operator %q: %w", st.Op, ErrUnknownStep)
		}
		return c.ByAttrValue(st.Name, op, *st.Value, st.CaseInsensitive), nil
	case StepHover:
		return c.Hover(), nil
	case StepNthChild:
		return c.NthChild(st.Nth), nil
	case StepAfter:
		return c.After(), nil
	}
	return nil, ErrUnknownStep
}

// Build runs the steps on a new selector builder. Unlike the builder methods,
// whose types rule out a misplaced combinator, Build checks the order of the
// steps at runtime and fails on the first step that is not allowed.
func Build(steps []Step) (*Selector, error) {
	start := New()
	var sel *Selector
	for i, st := range steps {
		if st.err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, st.Kind, st.err)
		}
		switch st.Kind {
		case StepAll, StepID, StepTag:
			if sel != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, st.Kind, ErrStartOnly)
			}
			switch st.Kind {
			case StepAll:
				sel = start.SelectAll()
			case StepID:
				sel = start.ByID(st.Name)
			default:
				sel = start.ByTag(st.Name)
			}
		case StepAnd, StepChild, StepDescendant, StepSibling, StepAdjacent:
			if sel == nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, st.Kind, ErrMisplacedCombinator)
			}
			switch st.Kind {
			case StepAnd:
				start = sel.And()
			case StepChild:
				start = sel.Child()
			case StepDescendant:
				start = sel.Descendant()
			case StepSibling:
				start = sel.Sibling()
			default:
				start = sel.Adjacent()
			}
			sel = nil
		default:
			c := start.compound
			if sel != nil {
				c = sel.compound
			}
			next, err := c.apply(st)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, st.Kind, err)
			}
			sel = next
		}
	}
	if sel == nil {
		return nil, ErrIncomplete
	}
	return sel, nil
}

// Declarations keeps the order of a YAML mapping.
type Declarations []Declaration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Declarations) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: declarations must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of %q must be a scalar", v.Line, k.Value)
		}
		*d = append(*d, Decl(k.Value, v.Value))
	}
	return nil
}

// RuleDefinition is a rule in a definition file.
type RuleDefinition struct {
	Selector     []Step       `yaml:"selector"`
	Declarations Declarations `yaml:"declarations"`
}

// Definition is the document read by LoadDefinition.
type Definition struct {
	Rules []RuleDefinition `yaml:"rules"`
}

// LoadDefinition decodes a YAML style definition and builds a sheet from it.
// Rules that cannot be built are left out of the sheet and all their errors
// are returned together.
func LoadDefinition(data []byte, log *zap.Logger) (*Sheet, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("definition")

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	sheet := &Sheet{}
	var errs error
	for i, rd := range def.Rules {
		sel, err := Build(rd.Selector)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		sheet.Add(sel, rd.Declarations...)
		log.Debug("Built rule", zap.Int("rule", i), zap.Stringer("selector", sel), zap.Int("declarations", len(rd.Declarations)))
	}
	return sheet, errs
}

// LoadDefinitionFile reads a definition file and calls LoadDefinition.
func LoadDefinitionFile(filename string, log *zap.Logger) (*Sheet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return LoadDefinition(data, log)
}
