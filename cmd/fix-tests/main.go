package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"
	yamlparser "github.com/goccy/go-yaml/parser"
	"github.com/pkg/errors"
	"github.com/sqldef/sqlsplit"
	"github.com/sqldef/sqlsplit/parser"
	"github.com/sqldef/sqlsplit/testutil"
	"github.com/sqldef/sqlsplit/util"
)

// TestFailure is a fixture whose expectation no longer matches what the splitter returns.
type TestFailure struct {
	TestName string
	YamlFile string
	Field    string // "statements" or "error"
	Expected any
	Actual   any
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run updates the fixtures in files, or every dialect/*/tests.yml when none are given. The
// dialect is the name of the directory holding the file.
func run(files []string) error {
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join("dialect", "*", "tests.yml"))
		if err != nil {
			return err
		}
	}

	var failures []TestFailure
	for _, file := range files {
		found, err := findFailures(file)
		if err != nil {
			return errors.Wrapf(err, "failed to check '%s'", file)
		}
		failures = append(failures, found...)
	}

	fmt.Printf("Found %d failing tests\n", len(failures))

	fixed := 0
	for _, failure := range failures {
		if err := fixTest(failure); err != nil {
			log.Printf("Failed to fix test %s: %v", failure.TestName, err)
		} else {
			fixed++
		}
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Total failures: %d\n", len(failures))
	fmt.Printf("Fixed: %d\n", fixed)
	fmt.Printf("Failed to fix: %d\n", len(failures)-fixed)

	return nil
}

func findFailures(file string) ([]TestFailure, error) {
	mode, err := parser.ParseParserMode(filepath.Base(filepath.Dir(file)))
	if err != nil {
		return nil, err
	}
	tests, err := testutil.ReadTests(file)
	if err != nil {
		return nil, err
	}

	var failures []TestFailure
	for name, test := range util.CanonicalMapIter(tests) {
		failure, ok, err := checkTest(mode, test)
		if err != nil {
			return nil, errors.Wrapf(err, "test case '%s'", name)
		}
		if ok {
			continue
		}
		failure.TestName = name
		failure.YamlFile = file
		failures = append(failures, failure)
	}
	return failures, nil
}

// checkTest splits the input in one chunk; the chunk-invariance harness covers the rest.
func checkTest(mode parser.ParserMode, test testutil.TestCase) (TestFailure, bool, error) {
	splitter, err := sqlsplit.NewSplitter(mode, sqlsplit.Options{
		Delimiter:      test.Delimiter,
		BatchSeparator: test.BatchSeparator,
	})
	if err != nil {
		return TestFailure{}, false, err
	}
	statements, err := sqlsplit.Collect(splitter.SplitString(test.Input))

	var unterminated *parser.UnterminatedError
	switch {
	case test.Error != nil && errors.As(err, &unterminated):
		actual := unterminated.Construct.String()
		if actual == *test.Error {
			return TestFailure{}, true, nil
		}
		return TestFailure{Field: "error", Expected: *test.Error, Actual: actual}, false, nil
	case test.Error == nil && err == nil:
		if slices.Equal(statements, test.Statements) {
			return TestFailure{}, true, nil
		}
		return TestFailure{Field: "statements", Expected: test.Statements, Actual: statements}, false, nil
	case err != nil:
		// Swapping statements for an error changes what the case is about.
		return TestFailure{}, false, errors.Wrap(err, "expected statements")
	default:
		return TestFailure{}, false, errors.Errorf("expected unterminated %s, got %q", *test.Error, statements)
	}
}

func fixTest(failure TestFailure) error {
	data, err := os.ReadFile(failure.YamlFile)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}

	file, err := yamlparser.ParseBytes(data, yamlparser.ParseComments)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	path, err := yaml.PathString(fmt.Sprintf("$.%s.%s", failure.TestName, failure.Field))
	if err != nil {
		return err
	}
	value, err := yaml.MarshalWithOptions(failure.Actual, yaml.Flow(true))
	if err != nil {
		return err
	}
	if err := path.ReplaceWithReader(file, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("failed to update %s: %w", failure.Field, err)
	}

	if err := os.WriteFile(failure.YamlFile, []byte(file.String()+"\n"), 0644); err != nil {
		return err
	}
	fmt.Printf("Fixed test: %s in %s\n", failure.TestName, filepath.Base(failure.YamlFile))
	return nil
}
