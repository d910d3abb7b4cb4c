//go:build mage

// Package main provides build targets for the linkgraph project using Mage.
//
// Usage:
//
//	mage build       Compile linkgraph binary to bin/
//	mage test        Run all tests
//	mage testRace    Run all tests with the race detector
//	mage scenarios   Check every bundled scenario with the built binary
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install linkgraph to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName  = "linkgraph"
	binaryDir   = "bin"
	cmdDir      = "./cmd/linkgraph"
	scenarioDir = "internal/scenario/testdata"
)

// Build compiles the linkgraph binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestRace runs all tests with the race detector.
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Scenarios builds the binary and runs "linkgraph check" on every bundled
// scenario.
func Scenarios() error {
	mg.Deps(Build)
	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No scenarios found.")
		return nil
	}
	bin := filepath.Join(binaryDir, binaryName)
	for _, f := range files {
		if err := sh.RunV(bin, "--config-dir", os.TempDir(), "check", f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
