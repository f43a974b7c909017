package ports

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type StructuredLogger struct {
	logger    *slog.Logger
	component string
	version   string
	baseAttrs []slog.Attr
}

func NewStructuredLogger(logger *slog.Logger, component, version string) *StructuredLogger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &StructuredLogger{
		logger:    logger,
		component: component,
		version:   version,
		baseAttrs: []slog.Attr{
			slog.String(FieldComponent, component),
			slog.String(FieldVersion, version),
		},
	}
}

func (sl *StructuredLogger) Logger() *slog.Logger {
	return sl.logger
}

func (sl *StructuredLogger) WithExecution(executionID, graphName string) *ExecutionLogger {
	return &ExecutionLogger{
		logger:      sl,
		executionID: executionID,
		graphName:   graphName,
	}
}

func (sl *StructuredLogger) WithOperation(operation, requestID string) *OperationLogger {
	return &OperationLogger{
		logger:    sl,
		operation: operation,
		requestID: requestID,
		startTime: time.Now(),
	}
}

func (sl *StructuredLogger) Debug(msg string, args ...interface{}) {
	sl.log(slog.LevelDebug, msg, args...)
}

func (sl *StructuredLogger) Info(msg string, args ...interface{}) {
	sl.log(slog.LevelInfo, msg, args...)
}

func (sl *StructuredLogger) Warn(msg string, args ...interface{}) {
	sl.log(slog.LevelWarn, msg, args...)
}

func (sl *StructuredLogger) Error(msg string, args ...interface{}) {
	sl.log(slog.LevelError, msg, args...)
}

func (sl *StructuredLogger) log(level slog.Level, msg string, args ...interface{}) {
	attrs := make([]slog.Attr, 0, len(sl.baseAttrs)+len(args)/2)
	attrs = append(attrs, sl.baseAttrs...)
	attrs = append(attrs, sl.convertArgs(args...)...)
	sl.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func (sl *StructuredLogger) convertArgs(args ...interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)

	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		value := args[i+1]
		switch v := value.(type) {
		case string:
			attrs = append(attrs, slog.String(key, v))
		case int:
			attrs = append(attrs, slog.Int(key, v))
		case int64:
			attrs = append(attrs, slog.Int64(key, v))
		case bool:
			attrs = append(attrs, slog.Bool(key, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(key, v))
		case time.Time:
			attrs = append(attrs, slog.Time(key, v))
		case error:
			attrs = append(attrs, slog.String(key, v.Error()))
		default:
			attrs = append(attrs, slog.Any(key, v))
		}
	}

	return attrs
}

type ExecutionLogger struct {
	logger      *StructuredLogger
	executionID string
	graphName   string
}

func (el *ExecutionLogger) Debug(msg string, args ...interface{}) {
	el.logger.Debug(msg, el.addExecutionFields(args...)...)
}

func (el *ExecutionLogger) Info(msg string, args ...interface{}) {
	el.logger.Info(msg, el.addExecutionFields(args...)...)
}

func (el *ExecutionLogger) Warn(msg string, args ...interface{}) {
	el.logger.Warn(msg, el.addExecutionFields(args...)...)
}

func (el *ExecutionLogger) Error(msg string, args ...interface{}) {
	el.logger.Error(msg, el.addExecutionFields(args...)...)
}

func (el *ExecutionLogger) addExecutionFields(args ...interface{}) []interface{} {
	executionArgs := []interface{}{
		FieldExecutionID, el.executionID,
		FieldGraphName, el.graphName,
	}

	return append(executionArgs, args...)
}

type OperationLogger struct {
	logger    *StructuredLogger
	operation string
	requestID string
	startTime time.Time
}

func (ol *OperationLogger) Debug(msg string, args ...interface{}) {
	ol.logger.Debug(msg, ol.addOperationFields(args...)...)
}

func (ol *OperationLogger) Info(msg string, args ...interface{}) {
	ol.logger.Info(msg, ol.addOperationFields(args...)...)
}

func (ol *OperationLogger) Complete(msg string, args ...interface{}) {
	operationArgs := ol.addOperationFields(args...)
	operationArgs = append(operationArgs, FieldDuration, time.Since(ol.startTime), FieldStatus, "completed")
	ol.logger.Info(msg, operationArgs...)
}

func (ol *OperationLogger) Fail(msg string, err error, args ...interface{}) {
	operationArgs := ol.addOperationFields(args...)
	operationArgs = append(operationArgs, FieldDuration, time.Since(ol.startTime), FieldStatus, "failed", FieldError, err)
	ol.logger.Error(msg, operationArgs...)
}

func (ol *OperationLogger) addOperationFields(args ...interface{}) []interface{} {
	operationArgs := []interface{}{
		FieldOperation, ol.operation,
		FieldRequestID, ol.requestID,
	}

	return append(operationArgs, args...)
}

const (
	FieldExecutionID = "execution_id"
	FieldGraphName   = "graph_name"
	FieldNodeID      = "node_id"
	FieldNodeType    = "node_type"
	FieldStrategy    = "strategy"
	FieldOperation   = "operation"
	FieldDuration    = "duration"
	FieldRequestID   = "request_id"
	FieldError       = "error"
	FieldStatus      = "status"
	FieldComponent   = "component"
	FieldVersion     = "version"
)
