package domain

import (
	"fmt"

	"dario.cat/mergo"
)

// UpstreamOutput is the output a predecessor produced for a fan-in node.
type UpstreamOutput struct {
	SourceID string
	Output   interface{}
}

// MergeInputs composes the outputs of several predecessors into the single
// input of a fan-in node. Map outputs are merged in order with later keys
// overriding earlier ones and slices appended; any other output is stored
// under its source id.
func MergeInputs(upstream []UpstreamOutput) (interface{}, error) {
	switch len(upstream) {
	case 0:
		return nil, nil
	case 1:
		return upstream[0].Output, nil
	}

	merged := make(map[string]interface{})
	for _, item := range upstream {
		resultsMap, ok := item.Output.(map[string]interface{})
		if !ok {
			merged[item.SourceID] = item.Output
			continue
		}

		if err := mergo.Merge(&merged, copyMap(resultsMap),
			mergo.WithOverride,
			mergo.WithAppendSlice); err != nil {
			return nil, fmt.Errorf("merge output of %s: %w", item.SourceID, err)
		}
	}
	return merged, nil
}

func copyMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
