package csssel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/speedata/css/scanner"
	"go.uber.org/zap"
)

// tokenstream is a list of CSS tokens
type tokenstream []*scanner.Token

type qrule struct {
	key   tokenstream
	value tokenstream
}

// sBlock is a block with a selector
type sBlock struct {
	name            string      // only set if this is an at-rule
	componentValues tokenstream // the "selector"
	childAtRules    []*sBlock   // the block's at-rules, if any
	blocks          []*sBlock   // the at-rule's blocks, if any
	rules           []qrule     // the key-value pairs
}

// CSS collects rules from CSS text and from built sheets so they can be
// applied to HTML.
type CSS struct {
	FileFinder func(string) (string, error)
	log        *zap.Logger
	dirstack   []string
	sheet      Sheet
}

// PushDir adds a directory to the dir stack. When a file is opened, all new
// Open calls are relative to this directory. ProcessHTMLFile uses the dir stack
// internally when it reads linked stylesheets.
func (c *CSS) PushDir(dir string) {
	if filepath.IsAbs(dir) {
		c.dirstack = append(c.dirstack, dir)
		return
	}
	var newEntry string
	if len(c.dirstack) > 0 {
		lastEntry := c.dirstack[len(c.dirstack)-1]
		newEntry = filepath.Join(lastEntry, dir)
	} else {
		newEntry = dir
	}
	c.dirstack = append(c.dirstack, newEntry)
}

// PopDir removes the last entry from the dir stack.
func (c *CSS) PopDir() {
	if len(c.dirstack) == 0 {
		return
	}
	c.dirstack = c.dirstack[:len(c.dirstack)-1]
}

// findFile returns the absolute path of the file. If the function in
// CSS.FileFinder is set, it is used to find the file. If it is unset, findFile
// returns the filename if is an absolute path or it prefixes the filename with
// the top entry of the dirstack.
func (c *CSS) findFile(filename string) (string, error) {
	if c.FileFinder != nil {
		if loc, err := c.FileFinder(filename); loc != "" && err == nil {
			return loc, nil
		}
	}
	if len(c.dirstack) == 0 {
		return filename, nil
	}
	lastEntry := c.dirstack[len(c.dirstack)-1]
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	return filepath.Join(lastEntry, filename), nil
}

// CSSdefaults contains browser-like styling of some elements.
var CSSdefaults = `
html            { font-size: 10pt; font-family: sans; }
li              { display: list-item; padding-left: 0; }
head            { display: none }
table           { display: table }
tr              { display: table-row }
td, th          { display: table-cell }
th              { font-weight: bold; text-align: center }
body            { margin: 0pt; line-height: 1.2; font-weight: normal; }
h1, h2, h3, h4,
h5, h6, b,
strong          { font-weight: bold }
i, cite, em,
var, address    { font-style: italic }
pre, tt, code,
kbd, samp       { font-family: monospace }
pre             { white-space: pre }
s, strike, del  { text-decoration: line-through }
ol              { list-style-type: decimal }
ul              { list-style-type: disc }
u, ins          { text-decoration: underline }
center          { text-align: center }
`

func tokenizeCSSString(contents string) (tokenstream, error) {
	var toks tokenstream
	s := scanner.New(contents)
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.EOF:
			return toks, nil
		case scanner.Error:
			return toks, fmt.Errorf("css syntax error near %q", tok.Value)
		case scanner.Comment:
			// ignore
		default:
			toks = append(toks, tok)
		}
	}
}

func (c *CSS) tokenizeCSSFile(filename string) (tokenstream, error) {
	loc, err := c.findFile(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}
	c.log.Debug("Read stylesheet", zap.String("file", loc), zap.Int("bytes", len(data)))
	toks, err := tokenizeCSSString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return toks, nil
}

// Return the position of the matching closing brace "}"
func findClosingBrace(toks tokenstream) int {
	level := 1
	for i, t := range toks {
		if t.Type == scanner.Delim {
			switch t.Value {
			case "{":
				level++
			case "}":
				level--
				if level == 0 {
					return i + 1
				}
			}
		}
	}
	return len(toks)
}

func trimSpace(toks tokenstream) tokenstream {
	i := 0
	for i < len(toks) && toks[i].Type == scanner.S {
		i++
	}
	return toks[i:]
}

// consumeBlock get the contents of a block. The name (in case of an at-rule)
// and the selector will be added later on
func consumeBlock(toks tokenstream, inblock bool) sBlock {
	// This is the whole block between the opening { and closing }
	if len(toks) <= 1 {
		return sBlock{}
	}
	b := sBlock{}
	i := 0
	// we might start with whitespace, skip it
	for i < len(toks) && toks[i].Type == scanner.S {
		i++
	}
	start := i
	colon := 0

outer:
	for i < len(toks) {
		// There are only two cases: a key-value rule or something with
		// curly braces
		if t := toks[i]; t.Type == scanner.Delim {
			switch t.Value {
			case ":":
				if inblock && colon == 0 {
					colon = i
				}
			case ";":
				if colon > start {
					key := trimSpace(toks[start:colon])
					value := trimSpace(toks[colon+1 : i])
					b.rules = append(b.rules, qrule{key: key, value: value})
				}
				colon = 0
				start = i + 1
				if start < len(toks) && toks[start].Type == scanner.S {
					start++
				}
				if start == len(toks) {
					break outer
				}
			case "{":
				// l is the length of the sub block
				l := findClosingBrace(toks[i+1:])
				subblock := toks[i+1 : i+l]
				// subblock is without the enclosing curly braces
				starttok := toks[start]
				startsWithATKeyword := starttok.Type == scanner.AtKeyword && (starttok.Value == "media" || starttok.Value == "supports")
				nb := consumeBlock(subblock, !startsWithATKeyword)
				if starttok.Type == scanner.AtKeyword {
					nb.name = starttok.Value
					nb.componentValues = trimSpace(toks[start+1 : i])
					b.childAtRules = append(b.childAtRules, &nb)
				} else {
					nb.componentValues = trimSpace(toks[start:i])
					b.blocks = append(b.blocks, &nb)
				}

				i = i + l
				start = i + 1
				colon = 0
				// skip over whitespace
				if start < len(toks) && toks[start].Type == scanner.S {
					start++
					i++
				}
			}
		}
		i++
	}
	if colon > start {
		b.rules = append(b.rules, qrule{key: trimSpace(toks[start:colon]), value: trimSpace(toks[colon+1:])})
	}
	return b
}

func stringValue(toks tokenstream) string {
	return strings.TrimSpace(toks.String())
}

// addBlock turns the top level blocks into rules. At-rules are not applied to
// HTML and only logged.
func (c *CSS) addBlock(block sBlock) {
	for _, atrule := range block.childAtRules {
		c.log.Debug("Skipping at-rule", zap.String("name", atrule.name), zap.Stringer("block", atrule))
	}
	for _, bl := range block.blocks {
		r := Rule{Selector: strings.TrimSpace(bl.componentValues.String())}
		for _, q := range bl.rules {
			r.Declarations = append(r.Declarations, Decl(stringValue(q.key), stringValue(q.value)))
		}
		c.sheet.AddRule(r)
	}
}

// NewCSSParser returns a new CSS object. A nil log disables logging.
func NewCSSParser(log *zap.Logger) *CSS {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSS{log: log.Named("css")}
}

// NewCSSParserWithDefaults returns a new CSS object with the default stylesheet
// included. This is a convenience function which adds the CSSdefaults to the
// returned CSS struct.
func NewCSSParserWithDefaults(log *zap.Logger) *CSS {
	c := NewCSSParser(log)
	if err := c.AddCSSText(CSSdefaults); err != nil {
		c.log.Error("Default stylesheet", zap.Error(err))
	}
	return c
}

// AddCSSText parses CSS text and appends the rules to the previously read
// rules.
func (c *CSS) AddCSSText(fragment string) error {
	toks, err := tokenizeCSSString(fragment)
	if err != nil {
		return err
	}
	c.addBlock(consumeBlock(toks, false))
	return nil
}

// AddSheet appends the rules of a built sheet to the previously read rules.
func (c *CSS) AddSheet(s *Sheet) {
	for _, r := range s.Rules {
		c.sheet.AddRule(r)
	}
}

// Sheet returns all rules collected so far.
func (c *CSS) Sheet() *Sheet {
	return &c.sheet
}
