// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Build targets for almanac.
//
//	mage build       Compile the almanac binary to bin/
//	mage install     Install almanac to GOPATH/bin
//	mage test:all    Run all tests
//	mage test:race   Run all tests with the race detector
//	mage test:cover  Write coverage.out and print per-function coverage
//	mage smoke       Build, then round-trip a bundle through the binary
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage stats       Print Go lines of code per top-level directory
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "almanac"
	binaryDir  = "bin"
	cmdDir     = "./cmd/almanac"
	coverFile  = "coverage.out"
)

// Build compiles the almanac binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverFile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Test groups test targets.
type Test mg.Namespace

// All runs all tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs all tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes a coverage profile and prints per-function coverage.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverFile)
}

// smokeBundle is a minimal canonical bundle with one nested work schedule.
const smokeBundle = `{"tasks":[{"id":"t1","title":"smoke"}],"projects":[],"categories":[],
"workSchedule":{"id":"ws","name":"smoke","shifts":[{"date":"2024-01-01","notes":"{ok}"}]}}`

// Smoke builds the binary and runs init, import, export and reset against
// throwaway directories.
func Smoke() error {
	mg.Deps(Build)
	tmp, err := os.MkdirTemp("", "almanac-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	in := filepath.Join(tmp, "in.json")
	if err := os.WriteFile(in, []byte(smokeBundle), 0o644); err != nil {
		return err
	}
	bin := filepath.Join(binaryDir, binaryName)
	env := map[string]string{
		"ALMANAC_CONFIG_DIR": filepath.Join(tmp, "config"),
		"ALMANAC_DATA_DIR":   filepath.Join(tmp, "data"),
	}
	steps := [][]string{
		{"init"},
		{"detect", in},
		{"import", in},
		{"export", "-o", filepath.Join(tmp, "out.json")},
		{"reset", "--yes"},
	}
	for _, args := range steps {
		if err := sh.RunWithV(env, bin, args...); err != nil {
			return fmt.Errorf("almanac %s: %w", strings.Join(args, " "), err)
		}
	}
	return nil
}

// Stats prints Go lines of code per top-level directory, split into
// production and test code.
func Stats() error {
	type counts struct{ prod, test int }
	byDir := map[string]*counts{}

	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path == ".git" || path == binaryDir || strings.HasPrefix(path, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := strings.SplitN(filepath.ToSlash(path), "/", 2)[0]
		c := byDir[dir]
		if c == nil {
			c = &counts{}
			byDir[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	var total counts
	for _, d := range dirs {
		c := byDir[d]
		fmt.Printf("%-12s prod %6d  test %6d\n", d, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Printf("%-12s prod %6d  test %6d\n", "total", total.prod, total.test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
