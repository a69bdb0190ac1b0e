package sqlsplit

import (
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"github.com/sqldef/sqlsplit/parser"
	"github.com/sqldef/sqlsplit/util"
	"golang.org/x/term"
)

type RunOptions struct {
	// Files to split in order; "-" is stdin. Empty means stdin.
	Files  []string
	Config Config
	// Logger receives the output. Defaults to StdoutLogger.
	Logger Logger
	// Stdin replaces os.Stdin for "-".
	Stdin io.Reader
}

// Record is one statement in the json, yaml and pp formats.
type Record struct {
	File      string `json:"file" yaml:"file"`
	Index     int    `json:"index" yaml:"index"`
	Statement string `json:"statement" yaml:"statement"`
}

// Main function shared by all commands
func Run(mode parser.ParserMode, options *RunOptions) error {
	config := options.Config
	if err := config.validate(); err != nil {
		return err
	}
	splitter, err := NewSplitter(mode, config.Options())
	if err != nil {
		return err
	}

	logger := options.Logger
	if logger == nil {
		logger = StdoutLogger{}
	}
	print, err := newPrinter(config.OutputFormat(), logger)
	if err != nil {
		return err
	}

	files, err := ParseFiles(options.Files)
	if err != nil {
		return err
	}

	// One file at a time, statements are printed as they are split.
	if config.Concurrency() == 1 {
		for _, file := range files {
			if err := splitFile(splitter, file, options.Stdin, print); err != nil {
				return err
			}
		}
		return nil
	}

	results, err := util.ConcurrentMapFuncWithError(files, config.Concurrency(), func(file string) ([]Record, error) {
		records := []Record{}
		err := splitFile(splitter, file, options.Stdin, func(r Record) error {
			records = append(records, r)
			return nil
		})
		return records, err
	})
	if err != nil {
		return err
	}

	for _, records := range results {
		for _, record := range records {
			if err := print(record); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseFiles defaults to stdin and allows stdin at most once.
func ParseFiles(files []string) ([]string, error) {
	if len(files) == 0 {
		return []string{"-"}, nil
	}
	stdin := 0
	for _, file := range files {
		if file == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return nil, errors.Errorf("stdin can be read only once, but got: %v", files)
	}
	return files, nil
}

func splitFile(splitter *Splitter, file string, stdin io.Reader, emit func(Record) error) error {
	var statements iter.Seq2[string, error]
	if file == "-" {
		r, err := openStdin(stdin)
		if err != nil {
			return err
		}
		statements = splitter.SplitReader(r)
	} else {
		statements = splitter.SplitFile(file)
	}

	index := 0
	for stmt, err := range statements {
		if err != nil {
			return err
		}
		if err := emit(Record{File: file, Index: index, Statement: stmt}); err != nil {
			return err
		}
		index++
	}
	slog.Debug("split file", "file", file, "mode", splitter.Mode(), "statements", index)
	return nil
}

func openStdin(stdin io.Reader) (io.Reader, error) {
	if stdin != nil {
		return stdin, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not piped")
	}
	return os.Stdin, nil
}

func newPrinter(format string, logger Logger) (func(Record) error, error) {
	switch format {
	case "text":
		return func(r Record) error {
			logger.Printf("%s;\n", r.Statement)
			return nil
		}, nil
	case "json":
		return func(r Record) error {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(r); err != nil {
				return errors.Wrapf(err, "failed to encode statement %d of '%s'", r.Index, r.File)
			}
			logger.Print(buf.String())
			return nil
		}, nil
	case "yaml":
		return func(r Record) error {
			// One-element sequences concatenate into a single YAML sequence.
			out, err := yaml.Marshal([]Record{r})
			if err != nil {
				return errors.Wrapf(err, "failed to encode statement %d of '%s'", r.Index, r.File)
			}
			logger.Print(string(out))
			return nil
		}, nil
	case "pp":
		printer := pp.New()
		_, stdout := logger.(StdoutLogger)
		printer.SetColoringEnabled(stdout && term.IsTerminal(int(os.Stdout.Fd())))
		return func(r Record) error {
			logger.Print(printer.Sprintln(r))
			return nil
		}, nil
	default:
		return nil, errors.Errorf("unknown format %q, expected one of %v", format, Formats)
	}
}
