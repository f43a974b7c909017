// Package loader reads graph documents from JSON, YAML or HCL.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

const FormatJSON = "json"

type JSONLoader struct{}

func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

func (l *JSONLoader) Format() string {
	return FormatJSON
}

func (l *JSONLoader) Parse(data []byte, filename string) (domain.Graph, error) {
	var graph domain.Graph
	if err := xjson.Unmarshal(data, &graph); err != nil {
		return domain.Graph{}, domain.NewLoadError(filename, FormatJSON, err)
	}
	if graph.Nodes == nil {
		graph.Nodes = []domain.Node{}
	}
	if graph.Edges == nil {
		graph.Edges = []domain.Edge{}
	}
	return graph, nil
}

// Loader picks a format loader by file extension.
type Loader struct {
	formats    map[string]ports.GraphLoaderPort
	extensions map[string]string
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		formats:    make(map[string]ports.GraphLoaderPort),
		extensions: make(map[string]string),
		logger:     logger.With("component", "loader"),
	}
	l.Register(NewJSONLoader(), ".json")
	l.Register(NewYAMLLoader(), ".yaml", ".yml")
	l.Register(NewHCLLoader(), ".hcl", ".flow")
	return l
}

// Register makes loader available under its format name and the given file
// extensions.
func (l *Loader) Register(loader ports.GraphLoaderPort, extensions ...string) {
	l.formats[loader.Format()] = loader
	for _, ext := range extensions {
		l.extensions[strings.ToLower(ext)] = loader.Format()
	}
}

func (l *Loader) Parse(format string, data []byte, filename string) (domain.Graph, error) {
	loader, ok := l.formats[format]
	if !ok {
		return domain.Graph{}, domain.NewLoadError(filename, format, domain.ErrUnsupportedFormat)
	}
	return loader.Parse(data, filename)
}

// LoadFile reads path with the loader registered for its extension. A graph
// without a name is named after the file.
func (l *Loader) LoadFile(path string) (domain.Graph, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := l.extensions[ext]
	if !ok {
		return domain.Graph{}, domain.NewLoadError(path, strings.TrimPrefix(ext, "."),
			fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Graph{}, domain.NewLoadError(path, format, err)
	}

	graph, err := l.Parse(format, data, path)
	if err != nil {
		return domain.Graph{}, err
	}
	if graph.Name == "" {
		graph.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	l.logger.Debug("graph loaded",
		"path", path,
		"format", format,
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
	)
	return graph, nil
}
