// Package main provides the linkgraph CLI.
package main

import "github.com/mesh-intelligence/linkgraph/internal/cli"

func main() {
	cli.Execute()
}
