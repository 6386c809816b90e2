// Package csssel builds CSS selectors with a chained API and turns them into
// stylesheets.
//
// A selector starts with New. The returned *Start accepts the operations that
// may begin a selector, each of them returns a *Selector which can be
// continued, combined with another selector or read with String:
//
//	sel := csssel.New().SelectAll().Child().ByClass("note").Hover()
//	sel.String() // "* > .note:hover"
//
// Combinators are only defined on *Selector and return a *Start, so a
// selector can neither be read while empty nor contain two combinators in a
// row. The builder never checks names or values; use Validate to compile the
// result with cascadia.
//
// Selectors become rules of a Sheet, which renders CSS text. A Sheet can also
// be read from a YAML definition (LoadDefinition) and applied to HTML with a
// CSS object (AddSheet, ProcessHTMLChunk).
package csssel
