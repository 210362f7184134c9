// Package agent runs the conversational retrieval loop: decide whether a
// turn needs document retrieval, execute at most one retrieval, and
// generate an answer grounded in the retrieved text.
package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/retrieval"
)

// Orchestrator drives one chat turn through decide, retrieve, and
// generate. Each request gets its own call; the struct itself is
// stateless and safe for concurrent use.
type Orchestrator struct {
	model  llm.ChatModel
	tool   *retrieval.Tool
	logger *zap.Logger
}

// NewOrchestrator builds an orchestrator over the chat model and the
// retrieval tool.
func NewOrchestrator(model llm.ChatModel, tool *retrieval.Tool, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{model: model, tool: tool, logger: logger}
}

// Run executes one turn synchronously and returns the final assistant
// content. At most one tool call happens per turn; whatever the
// generation step produces is final even if it resembles another call.
func (o *Orchestrator) Run(ctx context.Context, msgs []models.Message, opts llm.Options) (string, error) {
	outcome, history, err := o.decide(ctx, msgs, opts)
	if err != nil {
		return "", err
	}
	if outcome.Call == nil {
		return outcome.Text, nil
	}

	history, results, err := o.executeTool(ctx, history, *outcome.Call)
	if err != nil {
		return "", err
	}

	resp, err := o.model.Invoke(ctx, generateContext(history, results), opts.WithoutTools())
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// RunStream executes one turn and streams the final content. The decide
// and retrieve steps run synchronously; only generation streams. A direct
// answer arrives as a single delta so both paths produce the same content.
func (o *Orchestrator) RunStream(ctx context.Context, msgs []models.Message, opts llm.Options) (<-chan llm.Delta, error) {
	outcome, history, err := o.decide(ctx, msgs, opts)
	if err != nil {
		return nil, err
	}
	if outcome.Call == nil {
		out := make(chan llm.Delta, 1)
		if outcome.Text != "" {
			out <- llm.Delta{Content: outcome.Text}
		}
		close(out)
		return out, nil
	}

	history, results, err := o.executeTool(ctx, history, *outcome.Call)
	if err != nil {
		return nil, err
	}
	return o.model.Stream(ctx, generateContext(history, results), opts.WithoutTools())
}

// decide runs the first model turn with the retrieval tool bound and
// interprets the response. It returns the conversation history extended
// with the assistant turn when a tool call was made.
func (o *Orchestrator) decide(ctx context.Context, msgs []models.Message, opts llm.Options) (Outcome, []models.Message, error) {
	decideMsgs := make([]models.Message, 0, len(msgs)+1)
	decideMsgs = append(decideMsgs, models.Message{Role: models.RoleSystem, Content: decideSystemPrompt})
	decideMsgs = append(decideMsgs, msgs...)

	decideOpts := opts
	decideOpts.Tools = []llm.ToolDefinition{retrieval.Definition()}

	resp, err := o.model.Invoke(ctx, decideMsgs, decideOpts)
	if err != nil {
		return Outcome{}, nil, err
	}

	outcome := interpret(resp, o.logger)
	if outcome.Call == nil {
		o.logger.Info("answering directly without retrieval")
		return outcome, msgs, nil
	}
	if outcome.Call.Name != retrieval.ToolName {
		o.logger.Warn("model requested unknown tool, answering directly",
			zap.String("tool", outcome.Call.Name))
		return Outcome{Text: resp.Content}, msgs, nil
	}

	history := append(append([]models.Message{}, msgs...), models.Message{
		Role:      models.RoleAssistant,
		ToolCalls: []models.ToolCall{*outcome.Call},
	})
	return outcome, history, nil
}

// executeTool runs the retrieval call and appends its result to the
// history as a tool message. The tool messages produced this turn are
// also returned separately so generation never has to re-derive them
// from message order.
func (o *Orchestrator) executeTool(ctx context.Context, history []models.Message, call models.ToolCall) ([]models.Message, []models.Message, error) {
	query, err := call.QueryArg()
	if err != nil {
		return nil, nil, &retrieval.Error{Err: err}
	}

	o.logger.Info("executing retrieval",
		zap.String("call_id", call.ID),
		zap.String("query", query))

	text, _, err := o.tool.Retrieve(ctx, query, call.TagsArg())
	if err != nil {
		return nil, nil, err
	}

	result := models.Message{
		Role:       models.RoleTool,
		Content:    text,
		Name:       call.Name,
		ToolCallID: call.ID,
	}
	return append(history, result), []models.Message{result}, nil
}

// generateContext builds the grounded generation prompt: this turn's tool
// results are concatenated into one system instruction, and the rest of
// the context keeps only user and system messages plus assistant messages
// that did not themselves carry a tool call.
func generateContext(history, toolResults []models.Message) []models.Message {
	parts := make([]string, len(toolResults))
	for i, m := range toolResults {
		parts[i] = m.Content
	}
	docsContent := strings.Join(parts, "\n\n")

	var out []models.Message
	for _, m := range history {
		switch m.Role {
		case models.RoleUser, models.RoleSystem:
			out = append(out, m)
		case models.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, m)
			}
		}
	}
	return append(out, models.Message{
		Role:    models.RoleSystem,
		Content: generateInstruction(docsContent),
	})
}
