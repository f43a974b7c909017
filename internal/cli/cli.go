// Package cli parses command-line arguments, validates user input and maps
// command outcomes to exit codes.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

// ExitError is returned when the process should exit with a specific code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

const (
	CommandValidate = "validate"
	CommandCompile  = "compile"
	CommandSimulate = "simulate"
	CommandHistory  = "history"
)

// Options is the parsed command line.
type Options struct {
	Command string
	// Path is the graph file for validate, compile and simulate, and the
	// optional execution id for history.
	Path string

	ConfigPath     string
	LogLevel       string
	LogFormat      string
	Strategy       string
	Name           string
	Input          string
	Traversal      string
	HistoryDir     string
	HistoryBackend string
	Limit          int
	NoLatency      bool
}

// Parse processes args. It returns the options, whether the program should
// exit cleanly without running a command, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("flowgraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
flowgraph - validate, compile and simulate workflow graphs.

Usage:
  flowgraph [options] validate FILE
  flowgraph [options] compile FILE
  flowgraph [options] simulate FILE
  flowgraph [options] history [EXECUTION_ID]

Arguments:
  FILE
    Graph document: .json, .yaml, .yml or .hcl.

Options:
`)
		flagSet.PrintDefaults()
	}

	opts := &Options{}
	flagSet.StringVar(&opts.ConfigPath, "config", "", "Path to a JSON or YAML configuration file.")
	flagSet.StringVar(&opts.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&opts.LogLevel, "log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&opts.Strategy, "strategy", "", "Compiler strategy: 'branch-map' or 'module-list'. Defaults to the configured strategy.")
	flagSet.StringVar(&opts.Name, "name", "", "Workflow name embedded in the artifact.")
	flagSet.StringVar(&opts.Input, "input", "", "Simulation input as JSON, or @path to read it from a file.")
	flagSet.StringVar(&opts.Traversal, "traversal", "", "Simulator traversal: 'per-path' or 'worklist'.")
	flagSet.StringVar(&opts.HistoryDir, "history-dir", "", "Directory of the persistent execution history. Empty disables history.")
	flagSet.StringVar(&opts.HistoryBackend, "history-backend", string(domain.HistorySQLite), "History backend used with -history-dir: 'sqlite' or 'badger'.")
	flagSet.IntVar(&opts.Limit, "limit", 20, "Maximum number of executions listed by history.")
	flagSet.BoolVar(&opts.NoLatency, "no-latency", false, "Disable simulated I/O latency.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	opts.Command = flagSet.Arg(0)
	opts.Path = flagSet.Arg(1)
	if flagSet.NArg() > 2 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args()[2:], " "))}
	}

	switch opts.Command {
	case CommandValidate, CommandCompile, CommandSimulate:
		if opts.Path == "" {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s requires a graph file", opts.Command)}
		}
	case CommandHistory:
		if opts.HistoryDir == "" {
			return nil, false, &ExitError{Code: 2, Message: "history requires -history-dir"}
		}
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", opts.Command)}
	}

	opts.LogFormat = strings.ToLower(opts.LogFormat)
	if opts.LogFormat != "text" && opts.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	opts.LogLevel = strings.ToLower(opts.LogLevel)
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	switch domain.TraversalMode(opts.Traversal) {
	case "", domain.TraversalPerPath, domain.TraversalWorklist:
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid traversal: must be 'per-path' or 'worklist'"}
	}

	switch domain.HistoryBackend(opts.HistoryBackend) {
	case domain.HistorySQLite, domain.HistoryBadger:
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid history-backend: must be 'sqlite' or 'badger'"}
	}

	return opts, false, nil
}
