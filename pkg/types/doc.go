// Package types defines the entity types of the linkgraph store (attribute
// values and sets, nodes, hyperlinks, widgets, handles), the Graph
// interface, and the standard error values.
package types
