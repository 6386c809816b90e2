package csssel

import (
	"errors"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func TestBuild(t *testing.T) {
	val := "https"
	testdata := []struct {
		steps []Step
		want  string
	}{
		{[]Step{{Kind: StepAll}, {Kind: StepChild}, {Kind: StepClass, Name: "bar"}}, "* > .bar"},
		{[]Step{{Kind: StepAll}, {Kind: StepAnd}, {Kind: StepAll}}, "*,\r\n*"},
		{[]Step{{Kind: StepAttr, Name: "href", Op: "^=", Value: &val}}, "[href^=https]"},
		{[]Step{{Kind: StepAttr, Name: "href", Op: "starts-with", Value: &val, CaseInsensitive: true}}, "[href^=https i]"},
		{[]Step{{Kind: StepAttr, Name: "href"}, {Kind: StepHover}, {Kind: StepAfter}}, "[href]:hover::after"},
		{[]Step{{Kind: StepTag, Name: "li"}, {Kind: StepNthChild, Nth: Odd}}, "*:nth-child(odd)"},
		{[]Step{{Kind: StepClass, Name: "a"}, {Kind: StepSibling}, {Kind: StepID, Name: "x"}, {Kind: StepAdjacent}, {Kind: StepClass, Name: "b"}}, ".a ~ * + .b"},
		{[]Step{{Kind: StepClass, Name: "a"}, {Kind: StepDescendant}, {Kind: StepClass, Name: "b"}}, ".a .b"},
	}
	for i, td := range testdata {
		sel, err := Build(td.steps)
		if err != nil {
			t.Errorf("%d: Build() error %v", i, err)
			continue
		}
		if got := sel.String(); got != td.want {
			t.Errorf("%d: Build() = %q, want %q", i, got, td.want)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	val := "x"
	testdata := []struct {
		steps []Step
		want  error
	}{
		{nil, ErrIncomplete},
		{[]Step{{Kind: StepClass, Name: "a"}, {Kind: StepChild}}, ErrIncomplete},
		{[]Step{{Kind: StepChild}}, ErrMisplacedCombinator},
		{[]Step{{Kind: StepAll}, {Kind: StepAnd}, {Kind: StepAnd}}, ErrMisplacedCombinator},
		{[]Step{{Kind: StepClass, Name: "a"}, {Kind: StepAll}}, ErrStartOnly},
		{[]Step{{Kind: StepAll}, {Kind: StepTag, Name: "p"}}, ErrStartOnly},
		{[]Step{{Kind: StepAttr, Name: "a", Op: "="}}, ErrAttrValue},
		{[]Step{{Kind: StepAttr, Name: "a", Value: &val}}, ErrAttrValue},
		{[]Step{{Kind: StepAttr, Name: "a", CaseInsensitive: true}}, ErrAttrValue},
		{[]Step{{Kind: StepAttr, Name: "a", Op: "!=", Value: &val}}, ErrUnknownStep},
		{[]Step{{Kind: "focus"}}, ErrUnknownStep},
	}
	for i, td := range testdata {
		_, err := Build(td.steps)
		if !errors.Is(err, td.want) {
			t.Errorf("%d: Build() error = %v, want %v", i, err, td.want)
		}
	}
}

const definition = `
rules:
  - selector: [all, child, {class: bar}]
    declarations:
      color: red
      background: white
      margin: 0
  - selector:
      - attr: {name: lang, op: "|=", value: en, i: true}
      - nth-child: {a: 2, b: -1}
    declarations:
      font-style: italic
  - selector: [{nth-child: 3}, after]
    declarations: {content: none}
`

func TestLoadDefinition(t *testing.T) {
	sheet, err := LoadDefinition([]byte(definition), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(sheet.Rules), 3; got != want {
		t.Fatalf("len(Rules) = %d, want %d", got, want)
	}
	wantSelectors := []string{"* > .bar", "[lang|=en i]:nth-child(2n-1)", ":nth-child(3)::after"}
	for i, want := range wantSelectors {
		if got := sheet.Rules[i].Selector; got != want {
			t.Errorf("Rules[%d].Selector = %q, want %q", i, got, want)
		}
	}
	wantDecls := []Declaration{Decl("color", "red"), Decl("background", "white"), Decl("margin", "0")}
	decls := sheet.Rules[0].Declarations
	if len(decls) != len(wantDecls) {
		t.Fatalf("len(Declarations) = %d, want %d", len(decls), len(wantDecls))
	}
	for i, d := range wantDecls {
		if decls[i] != d {
			t.Errorf("Declarations[%d] = %v, want %v", i, decls[i], d)
		}
	}
}

func TestLoadDefinitionErrors(t *testing.T) {
	src := `
rules:
  - selector: [child, {class: a}]
    declarations: {color: red}
  - selector: [{class: ok}]
    declarations: {color: green}
  - selector: [{nth-child: first}]
  - selector: [{class: a}, all]
`
	sheet, err := LoadDefinition([]byte(src), nil)
	errs := multierr.Errors(err)
	if got, want := len(errs), 3; got != want {
		t.Fatalf("len(errors) = %d, want %d (%v)", got, want, err)
	}
	if !errors.Is(errs[0], ErrMisplacedCombinator) {
		t.Errorf("errors[0] = %v, want %v", errs[0], ErrMisplacedCombinator)
	}
	if !errors.Is(errs[2], ErrStartOnly) {
		t.Errorf("errors[2] = %v, want %v", errs[2], ErrStartOnly)
	}
	if got, want := len(sheet.Rules), 1; got != want {
		t.Fatalf("len(Rules) = %d, want %d", got, want)
	}
	if got, want := sheet.Rules[0].Selector, ".ok"; got != want {
		t.Errorf("Rules[0].Selector = %q, want %q", got, want)
	}
}

func TestLoadDefinitionDecode(t *testing.T) {
	if _, err := LoadDefinition([]byte("rulez: []\n"), nil); err == nil {
		t.Error("unknown field: LoadDefinition() = nil error, want error")
	}
	if _, err := LoadDefinition([]byte("rules:\n  - selector: [all]\n    declarations: [a, b]\n"), nil); err == nil {
		t.Error("declarations as list: LoadDefinition() = nil error, want error")
	}
	sheet, err := LoadDefinition(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet.Rules) != 0 {
		t.Errorf("empty definition: len(Rules) = %d, want 0", len(sheet.Rules))
	}
}

func TestParseAttrOperator(t *testing.T) {
	for _, s := range []string{"*=", "contains"} {
		if op, ok := ParseAttrOperator(s); !ok || op != Contains {
			t.Errorf("ParseAttrOperator(%q) = %v, %t, want %v, true", s, op, ok, Contains)
		}
	}
	if _, ok := ParseAttrOperator("=="); ok {
		t.Error(`ParseAttrOperator("==") succeeded`)
	}
}

func TestStepArguments(t *testing.T) {
	src := `
rules:
  - selector: [{nth-child: {a: 2}}]
  - selector: [{nth-child: {a: 2, b: 0}}]
`
	sheet, err := LoadDefinition([]byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{":nth-child(2)", ":nth-child(2n+0)"} {
		if got := sheet.Rules[i].Selector; got != want {
			t.Errorf("Rules[%d].Selector = %q, want %q", i, got, want)
		}
	}

	bad := `
rules:
  - selector: [{attr: {name: x, valu: y}}]
  - selector: [{nth-child: {a: 2, c: 1}}]
  - selector: [{attr: {name: x, op: "=", value: y}}]
`
	sheet, err = LoadDefinition([]byte(bad), nil)
	errs := multierr.Errors(err)
	if got, want := len(errs), 2; got != want {
		t.Fatalf("len(errors) = %d, want %d (%v)", got, want, err)
	}
	for i, e := range errs {
		if !errors.Is(e, ErrUnknownKey) {
			t.Errorf("errors[%d] = %v, want %v", i, e, ErrUnknownKey)
		}
	}
	if got, want := len(sheet.Rules), 1; got != want {
		t.Fatalf("len(Rules) = %d, want %d", got, want)
	}
	if got, want := sheet.Rules[0].Selector, "[x=y]"; got != want {
		t.Errorf("Rules[0].Selector = %q, want %q", got, want)
	}
}
