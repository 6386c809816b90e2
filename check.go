package csssel

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"go.uber.org/multierr"
)

// Compile parses the selector built so far with cascadia. Pseudo-elements are
// accepted.
func (s *Selector) Compile() (cascadia.SelectorGroup, error) {
	return cascadia.ParseGroupWithPseudoElements(s.String())
}

// Validate reports whether the selector built so far is a valid CSS selector.
// The builder itself never checks its output, so for example an unquoted
// attribute value with a colon produces a string that fails here.
func (s *Selector) Validate() error {
	return ValidateSelector(s.String())
}

// ValidateSelector checks a selector string in the same way as
// Selector.Validate.
func ValidateSelector(sel string) error {
	if _, err := cascadia.ParseGroupWithPseudoElements(sel); err != nil {
		return fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	return nil
}

// Validate checks the selectors of all rules and returns every failure.
func (s *Sheet) Validate() error {
	var err error
	for i, r := range s.Rules {
		if e := ValidateSelector(r.Selector); e != nil {
			err = multierr.Append(err, fmt.Errorf("rule %d: %w", i, e))
		}
	}
	return err
}
