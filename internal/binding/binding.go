// Package binding holds the capability a store needs to assign identity to
// nodes and hyperlinks. Only packages inside this module can import it, so
// callers of the public API cannot rebind an inserted entity.
package binding

// Token authorizes the Bind methods of types.Node and types.Hyperlink.
type Token struct{}
