package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/sqldef/sqlsplit"
	"github.com/sqldef/sqlsplit/parser"
	"github.com/sqldef/sqlsplit/util"
)

// version and revision are set via -ldflags
var version = "dev"
var revision = "HEAD"

// Return the options of one run. Flags win over --config and --config-inline.
func parseOptions(args []string) *sqlsplit.RunOptions {
	// Track parsed configs in order
	var configs []sqlsplit.Config

	var opts struct {
		File      []string `long:"file" description:"Read SQL from the file, rather than stdin (can be specified multiple times)" value-name:"sql_file"`
		Format    string   `long:"format" description:"Output format: text, json, yaml, pp" value-name:"format"`
		ChunkSize int      `long:"chunk-size" description:"Bytes read from the input at a time (default: 65536)" value-name:"bytes"`
		Parallel  int      `long:"parallel" description:"Number of files split at once" value-name:"num"`
		Help      bool     `long:"help" description:"Show this help"`
		Version   bool     `long:"version" description:"Show this version"`

		// Custom handlers for config flags to preserve order
		Config       func(string) `long:"config" description:"YAML file to specify: chunk_size, format, parallel (can be specified multiple times)"`
		ConfigInline func(string) `long:"config-inline" description:"YAML object to specify: chunk_size, format, parallel (can be specified multiple times)"`
	}

	opts.Config = func(path string) {
		config, err := sqlsplit.ParseConfig(path)
		if err != nil {
			log.Fatal(err)
		}
		configs = append(configs, config)
	}
	opts.ConfigInline = func(yaml string) {
		config, err := sqlsplit.ParseConfigString(yaml)
		if err != nil {
			log.Fatal(err)
		}
		configs = append(configs, config)
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[OPTIONS] [file.sql ...] < script.sql"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Version {
		fmt.Printf("%s (%s)\n", version, revision)
		os.Exit(0)
	}

	var flagConfig sqlsplit.Config
	if opts.Format != "" {
		flagConfig.Format = &opts.Format
	}
	if opts.ChunkSize != 0 {
		flagConfig.ChunkSize = &opts.ChunkSize
	}
	if opts.Parallel != 0 {
		flagConfig.Parallel = &opts.Parallel
	}
	configs = append(configs, flagConfig)

	return &sqlsplit.RunOptions{
		Files:  append(opts.File, args...),
		Config: sqlsplit.MergeConfigs(configs),
	}
}

func main() {
	util.InitSlog()

	options := parseOptions(os.Args[1:])
	if err := sqlsplit.Run(parser.ParserModePostgres, options); err != nil {
		log.Fatal(err)
	}
}
