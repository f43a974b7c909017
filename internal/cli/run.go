package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/loader"
	"github.com/rory-hayes121/tuesday-sub001/internal/core"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

// Run executes the parsed command. Results go to outW as indented JSON; logs
// go to errW.
func Run(ctx context.Context, opts *Options, outW, errW io.Writer) error {
	logger := NewLogger(opts.LogLevel, opts.LogFormat, errW)

	config, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	applyFlags(config, opts, logger)

	manager, err := core.NewWithConfig(config)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Warn("failed to close manager", "error", err)
		}
	}()

	c := &command{manager: manager, opts: opts, out: outW, logger: logger}
	switch opts.Command {
	case CommandValidate:
		return c.validate()
	case CommandCompile:
		return c.compile()
	case CommandSimulate:
		return c.simulate(ctx)
	case CommandHistory:
		return c.history(ctx)
	}
	return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", opts.Command)}
}

// LoadConfig reads a JSON or YAML configuration file. An empty path yields
// an empty config that is later filled with defaults.
func LoadConfig(path string) (*domain.Config, error) {
	config := &domain.Config{}
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = loader.DecodeYAML(data, config)
	default:
		err = xjson.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

func applyFlags(config *domain.Config, opts *Options, logger *slog.Logger) {
	config.Logger = logger
	if opts.Traversal != "" {
		config.Simulator.Traversal = domain.TraversalMode(opts.Traversal)
	}
	if opts.NoLatency {
		config.Simulator.DisableLatency = true
	}
	if opts.HistoryDir != "" {
		config.History.Backend = domain.HistoryBackend(opts.HistoryBackend)
		config.History.Dir = opts.HistoryDir
	}
	// an in-process history does not outlive a single command
	if config.History.Backend == "" || config.History.Backend == domain.HistoryMemory {
		config.History.Backend = domain.HistoryNone
	}
}

type command struct {
	manager *core.Manager
	opts    *Options
	out     io.Writer
	logger  *slog.Logger
}

func (c *command) load() (domain.Graph, error) {
	graph, err := loader.New(c.logger).LoadFile(c.opts.Path)
	if err != nil {
		return domain.Graph{}, &ExitError{Code: 1, Message: err.Error()}
	}
	return graph, nil
}

func (c *command) validate() error {
	graph, err := c.load()
	if err != nil {
		return err
	}
	result := c.manager.Validate(graph)
	if err := c.print(result); err != nil {
		return err
	}
	if !result.IsValid {
		return &ExitError{Code: 1, Message: fmt.Sprintf("graph %s is invalid: %d error(s)", c.opts.Path, len(result.Errors))}
	}
	return nil
}

func (c *command) compile() error {
	graph, err := c.load()
	if err != nil {
		return err
	}
	result, err := c.manager.Compile(graph, c.opts.Strategy, c.opts.Name)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if err := c.print(result); err != nil {
		return err
	}
	if !result.Succeeded() {
		return &ExitError{Code: 1, Message: fmt.Sprintf("graph %s did not compile: %d error(s)", c.opts.Path, len(result.Errors))}
	}
	return nil
}

func (c *command) simulate(ctx context.Context) error {
	graph, err := c.load()
	if err != nil {
		return err
	}
	input, err := parseInput(c.opts.Input)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	execution, err := c.manager.Simulate(ctx, graph, input)
	if err != nil && execution == nil {
		return err
	}
	if err != nil {
		c.logger.Warn("execution not recorded", "error", err)
	}
	if err := c.print(execution); err != nil {
		return err
	}
	if execution.Status != domain.ExecutionStatusCompleted {
		return &ExitError{Code: 1, Message: fmt.Sprintf("execution %s %s: %s", execution.ID, execution.Status, execution.Error)}
	}
	return nil
}

type historyEntry struct {
	ID        string                 `json:"id"`
	GraphName string                 `json:"graphName,omitempty"`
	Status    domain.ExecutionStatus `json:"status"`
	Steps     int                    `json:"steps"`
	StartedAt time.Time              `json:"startedAt"`
	Error     string                 `json:"error,omitempty"`
}

func (c *command) history(ctx context.Context) error {
	if c.opts.Path != "" {
		execution, err := c.manager.Execution(ctx, c.opts.Path)
		if err != nil {
			if domain.IsNotFound(err) {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return err
		}
		return c.print(execution)
	}

	executions, err := c.manager.Executions(ctx, c.opts.Limit)
	if err != nil {
		return err
	}
	entries := make([]historyEntry, 0, len(executions))
	for _, e := range executions {
		entries = append(entries, historyEntry{
			ID:        e.ID,
			GraphName: e.GraphName,
			Status:    e.Status,
			Steps:     len(e.Steps),
			StartedAt: e.StartedAt,
			Error:     e.Error,
		})
	}
	return c.print(entries)
}

func (c *command) print(v interface{}) error {
	data, err := xjson.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// parseInput decodes raw as JSON. A leading @ names a file holding the JSON.
func parseInput(raw string) (interface{}, error) {
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		var err error
		data, err = os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
	}
	var input interface{}
	if err := xjson.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("%w: input is not valid JSON: %v", domain.ErrInvalidInput, err)
	}
	return input, nil
}

// ExitCode maps an error returned by Run or Parse to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
