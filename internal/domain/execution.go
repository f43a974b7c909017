package domain

import (
	"time"
)

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

type ExecutionStep struct {
	NodeID      string      `json:"nodeId"`
	NodeType    NodeType    `json:"nodeType"`
	Status      StepStatus  `json:"status"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Input       interface{} `json:"input"`
	Output      interface{} `json:"output,omitempty"`
	Error       string      `json:"error,omitempty"`
	Duration    int64       `json:"duration"`
}

// Execution is the trace of one simulated run. Steps appear in the order they
// were executed.
type Execution struct {
	ID          string          `json:"id"`
	GraphName   string          `json:"graphName,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Steps       []ExecutionStep `json:"steps"`
	Input       interface{}     `json:"input"`
	Output      interface{}     `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

func NewExecution(id, graphName string, input interface{}, startedAt time.Time) *Execution {
	return &Execution{
		ID:        id,
		GraphName: graphName,
		Status:    ExecutionStatusRunning,
		Steps:     []ExecutionStep{},
		Input:     input,
		StartedAt: startedAt,
	}
}

func (e *Execution) Complete(output interface{}, at time.Time) {
	if e.Status.Terminal() {
		return
	}
	e.Status = ExecutionStatusCompleted
	e.Output = output
	e.CompletedAt = &at
}

func (e *Execution) Fail(err error, at time.Time) {
	if e.Status.Terminal() {
		return
	}
	e.Status = ExecutionStatusFailed
	if err != nil {
		e.Error = err.Error()
	}
	e.CompletedAt = &at
}

func (e *Execution) Cancel(err error, at time.Time) {
	if e.Status.Terminal() {
		return
	}
	e.Status = ExecutionStatusCancelled
	if err != nil {
		e.Error = err.Error()
	}
	e.CompletedAt = &at
}

// StepsFor returns every step recorded for nodeID in execution order.
func (e *Execution) StepsFor(nodeID string) []ExecutionStep {
	var steps []ExecutionStep
	for _, step := range e.Steps {
		if step.NodeID == nodeID {
			steps = append(steps, step)
		}
	}
	return steps
}

// StepEvent is delivered to step observers when a step starts and finishes.
type StepEvent struct {
	ExecutionID string        `json:"executionId"`
	Step        ExecutionStep `json:"step"`
	Index       int           `json:"index"`
}
