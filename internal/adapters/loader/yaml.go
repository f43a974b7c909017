package loader

import (
	"fmt"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
	"gopkg.in/yaml.v3"
)

const FormatYAML = "yaml"

// YAMLLoader reads the same document shape as JSONLoader written as YAML.
type YAMLLoader struct{}

func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

func (l *YAMLLoader) Format() string {
	return FormatYAML
}

func (l *YAMLLoader) Parse(data []byte, filename string) (domain.Graph, error) {
	var graph domain.Graph
	if err := DecodeYAML(data, &graph); err != nil {
		return domain.Graph{}, domain.NewLoadError(filename, FormatYAML, err)
	}
	if graph.Nodes == nil {
		graph.Nodes = []domain.Node{}
	}
	if graph.Edges == nil {
		graph.Edges = []domain.Edge{}
	}
	return graph, nil
}

// DecodeYAML decodes a YAML document into v using v's JSON field names, so
// types only need json tags.
func DecodeYAML(data []byte, v interface{}) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("empty document")
	}
	encoded, err := xjson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert yaml document: %w", err)
	}
	return xjson.Unmarshal(encoded, v)
}
