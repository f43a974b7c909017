package domain

// Artifact is the compiled, back-end specific representation of a graph.
// Concrete shapes are BranchMapArtifact and ModuleListArtifact.
type Artifact interface {
	StrategyName() string
	// Empty reports whether the artifact is a placeholder produced for an
	// invalid graph.
	Empty() bool
}

const ArtifactSchemaVersion = "1.0"

// CompileResult bundles an artifact with the findings collected while
// producing it. Errors are non-empty only when Artifact is a placeholder.
type CompileResult struct {
	Strategy string   `json:"strategy"`
	Artifact Artifact `json:"artifact"`
	Errors   []Issue  `json:"errors"`
	Warnings []Issue  `json:"warnings"`
}

func (r *CompileResult) Succeeded() bool {
	return len(r.Errors) == 0
}

func (r *CompileResult) AddError(nodeID string, kind IssueKind, message string) {
	r.Errors = append(r.Errors, Issue{NodeID: nodeID, Kind: kind, Message: message})
}

func (r *CompileResult) AddWarning(nodeID string, kind IssueKind, message string) {
	r.Warnings = append(r.Warnings, Issue{NodeID: nodeID, Kind: kind, Message: message})
}

// Branch keys used in next-step maps.
const (
	BranchDefault = "default"
	BranchTrue    = "true"
	BranchFalse   = "false"
)

// BranchMapTrigger is the flow entry of a branch-map artifact. It carries the
// generated script of the entry node itself.
type BranchMapTrigger struct {
	ID          string                 `json:"id"`
	Type        NodeType               `json:"type"`
	Kind        string                 `json:"kind"`
	Description string                 `json:"description,omitempty"`
	Inputs      map[string]interface{} `json:"inputs"`
	Script      string                 `json:"script"`
	Branches    []string               `json:"branches,omitempty"`
	Next        map[string]string      `json:"next,omitempty"`
}

type BranchMapAction struct {
	ID          string                 `json:"id"`
	Type        NodeType               `json:"type"`
	Kind        string                 `json:"kind"`
	Description string                 `json:"description,omitempty"`
	Inputs      map[string]interface{} `json:"inputs"`
	Script      string                 `json:"script"`
	Branches    []string               `json:"branches,omitempty"`
	Next        map[string]string      `json:"next,omitempty"`
}

// BranchMapArtifact is a single flow object: a trigger plus actions keyed by
// node id, linked through inline next-step maps.
type BranchMapArtifact struct {
	Name          string                     `json:"name"`
	SchemaVersion string                     `json:"schemaVersion"`
	Trigger       *BranchMapTrigger          `json:"trigger"`
	Actions       map[string]BranchMapAction `json:"actions"`
}

func (a *BranchMapArtifact) StrategyName() string { return "branch-map" }

func (a *BranchMapArtifact) Empty() bool {
	return a.Trigger == nil && len(a.Actions) == 0
}

type ModuleListTrigger struct {
	Type   string            `json:"type"`
	Entry  string            `json:"entry,omitempty"`
	Script string            `json:"script,omitempty"`
	Next   map[string]string `json:"next,omitempty"`
}

// Module is one generated script in a module-list artifact. Inputs maps an
// input name to the expression the platform evaluates to feed it.
type Module struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     NodeType          `json:"type"`
	Script   string            `json:"script"`
	Inputs   map[string]string `json:"inputs"`
	Branches []string          `json:"branches,omitempty"`
	Next     map[string]string `json:"next,omitempty"`
}

type ModuleListArtifact struct {
	Name          string             `json:"name"`
	SchemaVersion string             `json:"schemaVersion"`
	Trigger       *ModuleListTrigger `json:"trigger"`
	Modules       []Module           `json:"modules"`
}

func (a *ModuleListArtifact) StrategyName() string { return "module-list" }

func (a *ModuleListArtifact) Empty() bool {
	return a.Trigger == nil && len(a.Modules) == 0
}

// Module returns the module generated for nodeID.
func (a *ModuleListArtifact) Module(nodeID string) (Module, bool) {
	for _, m := range a.Modules {
		if m.ID == nodeID {
			return m, true
		}
	}
	return Module{}, false
}
