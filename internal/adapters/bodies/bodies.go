package bodies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

// Dependencies are the collaborators the default bodies need.
type Dependencies struct {
	Simulator   domain.SimulatorConfig
	Compiler    domain.CompilerConfig
	Text        ports.TextGeneratorPort
	Credentials ports.CredentialPort
	Evaluator   ports.ConditionEvaluatorPort
	Logger      *slog.Logger
}

// NewDefaultRegistry returns a registry with a simulated body for every node
// type. Text and Credentials default to the simulated implementations.
func NewDefaultRegistry(deps Dependencies) (*Registry, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Text == nil {
		deps.Text = NewSimulatedText(deps.Simulator)
	}
	if deps.Evaluator == nil {
		return nil, errors.New("bodies: condition evaluator is required")
	}

	registry := NewRegistry(deps.Logger)
	bodies := map[domain.NodeType]ports.NodeBody{
		domain.NodeTypePrompt:      &PromptBody{text: deps.Text, defaults: deps.Compiler},
		domain.NodeTypeTool:        &ToolBody{latency: deps.Simulator.LatencyFor(domain.NodeTypeTool)},
		domain.NodeTypeLogic:       &LogicBody{evaluator: deps.Evaluator},
		domain.NodeTypeMemory:      &MemoryBody{},
		domain.NodeTypeIntegration: &IntegrationBody{latency: deps.Simulator.LatencyFor(domain.NodeTypeIntegration), credentials: deps.Credentials},
	}
	for _, t := range domain.NodeTypes {
		if err := registry.RegisterBody(t, bodies[t]); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

type PromptBody struct {
	text     ports.TextGeneratorPort
	defaults domain.CompilerConfig
}

func (b *PromptBody) Execute(ctx context.Context, node domain.Node, input interface{}) (interface{}, error) {
	req := ports.TextRequest{
		Instruction: Substitute(node.ConfigString(domain.ConfigInstruction), input),
		Model:       node.ConfigStringOr(domain.ConfigModel, b.defaults.DefaultModel),
		Temperature: node.ConfigFloat(domain.ConfigTemperature, b.defaults.DefaultTemperature),
		MaxTokens:   node.ConfigInt(domain.ConfigMaxTokens, b.defaults.DefaultMaxTokens),
	}

	resp, err := b.text.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text generation failed: %w", err)
	}
	return map[string]interface{}{
		"response":   resp.Response,
		"model":      resp.Model,
		"tokensUsed": resp.TokensUsed,
	}, nil
}

// SimulatedText answers every request with a canned echo of the
// instruction after the configured prompt latency.
type SimulatedText struct {
	latency       time.Duration
	tokensPerWord int
}

func NewSimulatedText(cfg domain.SimulatorConfig) *SimulatedText {
	perWord := cfg.TokensPerWord
	if perWord <= 0 {
		perWord = 1
	}
	return &SimulatedText{latency: cfg.LatencyFor(domain.NodeTypePrompt), tokensPerWord: perWord}
}

func (s *SimulatedText) Generate(ctx context.Context, req ports.TextRequest) (*ports.TextResponse, error) {
	if err := Wait(ctx, s.latency); err != nil {
		return nil, err
	}
	response := "Simulated response to: " + req.Instruction
	return &ports.TextResponse{
		Response:   response,
		Model:      req.Model,
		TokensUsed: len(strings.Fields(response)) * s.tokensPerWord,
	}, nil
}

type ToolBody struct {
	latency time.Duration
}

func (b *ToolBody) Execute(ctx context.Context, node domain.Node, input interface{}) (interface{}, error) {
	if err := Wait(ctx, b.latency); err != nil {
		return nil, err
	}

	service := node.ConfigString(domain.ConfigService)
	if service != domain.ServiceHTTP {
		return map[string]interface{}{
			"service": service,
			"action":  node.ConfigString(domain.ConfigAction),
			"result": map[string]interface{}{
				"status": "simulated",
				"input":  input,
			},
		}, nil
	}

	raw := Substitute(node.ConfigString(domain.ConfigURL), input)
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid url %q: scheme and host are required", raw)
	}

	method := strings.ToUpper(node.ConfigStringOr(domain.ConfigMethod, "GET"))
	headers := make(map[string]interface{})
	for name, value := range node.ConfigMap(domain.ConfigHeaders) {
		headers[name] = Substitute(fmt.Sprint(value), input)
	}
	return map[string]interface{}{
		"status": 200,
		"headers": map[string]interface{}{
			"content-type": "application/json",
		},
		"data": map[string]interface{}{
			"simulated":      true,
			"method":         method,
			"url":            target.String(),
			"requestHeaders": headers,
		},
	}, nil
}

type LogicBody struct {
	evaluator ports.ConditionEvaluatorPort
}

func (b *LogicBody) Execute(_ context.Context, node domain.Node, input interface{}) (interface{}, error) {
	condition := node.ConfigString(domain.ConfigCondition)

	if node.ConfigString(domain.ConfigLogicType) != domain.LogicTypeFilter {
		return map[string]interface{}{
			"condition": b.evaluator.Evaluate(condition, input),
			"input":     input,
		}, nil
	}

	items, ok := input.([]interface{})
	if !ok {
		return nil, fmt.Errorf("filter expects an array input, got %s", describe(input))
	}
	kept := make([]interface{}, 0, len(items))
	for _, item := range items {
		if b.evaluator.Evaluate(condition, item) {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

type MemoryBody struct{}

func (b *MemoryBody) Execute(_ context.Context, node domain.Node, _ interface{}) (interface{}, error) {
	operation := node.ConfigStringOr(domain.ConfigOperation, domain.MemoryStore)
	result := map[string]interface{}{
		"success":   true,
		"operation": operation,
		"key":       node.ConfigString(domain.ConfigKey),
		"scope":     node.ConfigStringOr(domain.ConfigScope, "workflow"),
	}

	switch operation {
	case domain.MemoryStore, domain.MemoryUpdate, domain.MemoryDelete:
		return result, nil
	case domain.MemoryRetrieve:
		result["value"] = nil
		result["placeholder"] = true
		return result, nil
	}
	return nil, fmt.Errorf("unsupported memory operation %q", operation)
}

type IntegrationBody struct {
	latency     time.Duration
	credentials ports.CredentialPort
}

func (b *IntegrationBody) Execute(ctx context.Context, node domain.Node, input interface{}) (interface{}, error) {
	id := node.ConfigString(domain.ConfigIntegration)

	var services domain.ServicesConfig
	if execCtx, ok := domain.GetExecutionContext(ctx); ok {
		services = execCtx.Services
	}
	settings, ok := services.Integration(id)
	if !ok || settings.BaseURL == "" {
		return nil, fmt.Errorf("no base URL configured for integration %q", id)
	}

	credentials := b.credentials
	if credentials == nil {
		credentials = NewCredentialStore(services)
	}
	credential, err := credentials.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Wait(ctx, b.latency); err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(settings.BaseURL, "/") + "/" + strings.TrimLeft(node.ConfigString(domain.ConfigEndpoint), "/")
	payload := input
	if node.HasConfig(domain.ConfigPayload) {
		payload = node.Config[domain.ConfigPayload]
	}
	raw := map[string]interface{}{
		"ok":          true,
		"integration": id,
		"method":      strings.ToUpper(node.ConfigStringOr(domain.ConfigMethod, "POST")),
		"url":         endpoint,
		"auth":        credential.Scheme,
		"payload":     payload,
	}

	var data interface{} = raw
	if mapping := node.ConfigMap(domain.ConfigFieldMapping); len(mapping) > 0 {
		mapped := make(map[string]interface{}, len(mapping))
		for field, path := range mapping {
			mapped[field] = lookup(raw, fmt.Sprint(path))
		}
		data = mapped
	}
	return map[string]interface{}{
		"success":     true,
		"data":        data,
		"rawResponse": raw,
	}, nil
}

// CredentialStore resolves integration credentials from the services
// configuration. Unless credentials are required, a missing entry resolves
// to a simulated token.
type CredentialStore struct {
	services domain.ServicesConfig
}

func NewCredentialStore(services domain.ServicesConfig) *CredentialStore {
	return &CredentialStore{services: services}
}

func (s *CredentialStore) Resolve(_ context.Context, integrationID string) (*ports.Credential, error) {
	scheme := "Bearer"
	if cfg, ok := s.services.Integration(integrationID); ok && cfg.AuthScheme != "" {
		scheme = cfg.AuthScheme
	}

	token, ok := s.services.Credentials[integrationID]
	if !ok || token == "" {
		if s.services.RequireCredentials {
			return nil, fmt.Errorf("%w: missing credential for integration %q", domain.ErrCredentialNotFound, integrationID)
		}
		token = "simulated-" + integrationID
	}
	return &ports.Credential{IntegrationID: integrationID, Scheme: scheme, Token: token}, nil
}

// Substitute replaces every {{key}} in text with the matching top-level value
// of input. Non-string values are rendered as JSON.
func Substitute(text string, input interface{}) string {
	values, ok := input.(map[string]interface{})
	if !ok || len(values) == 0 || !strings.Contains(text, "{{") {
		return text
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", render(values[k]))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func render(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return "null"
	}
	data, err := xjson.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func lookup(v interface{}, path string) interface{} {
	current := v
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

func describe(v interface{}) string {
	if v == nil {
		return "null"
	}
	if _, ok := v.(map[string]interface{}); ok {
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
