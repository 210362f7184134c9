package agent

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
)

// Outcome is the normalized shape of one model turn: either a direct
// answer or exactly one tool invocation.
type Outcome struct {
	// Call is non-nil when the turn requests a tool. Text holds the direct
	// answer otherwise.
	Call *models.ToolCall
	Text string
}

// inlineCallPattern matches tool calls the model emits as pseudo-markup in
// plain text instead of the structured function-calling channel, e.g.
// <function=retrieve_university_data>{"query":"jadwal"}</function>.
// The closing tag may be self-closing or doubled.
var inlineCallPattern = regexp.MustCompile(`<function=(\w+)>({.*?})(?:</function>|/>|></function>)`)

// interpret normalizes a model response. Structured tool calls win; only
// the first one is honored. Otherwise the text is scanned for an inline
// pseudo-markup call. Unparseable inline arguments degrade to a direct
// answer with the original text, never an error.
func interpret(resp *llm.Response, logger *zap.Logger) Outcome {
	if len(resp.ToolCalls) > 0 {
		if len(resp.ToolCalls) > 1 {
			logger.Warn("model requested multiple tool calls, honoring only the first",
				zap.Int("requested", len(resp.ToolCalls)))
		}
		call := resp.ToolCalls[0]
		return Outcome{Call: &call}
	}

	match := inlineCallPattern.FindStringSubmatch(resp.Content)
	if match == nil {
		return Outcome{Text: resp.Content}
	}

	name, rawArgs := match[1], match[2]
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		logger.Warn("failed to parse inline function call arguments",
			zap.String("name", name), zap.Error(err))
		return Outcome{Text: resp.Content}
	}

	logger.Info("recovered inline function call", zap.String("name", name))
	return Outcome{Call: &models.ToolCall{
		ID:   synthesizeCallID(name, rawArgs),
		Name: name,
		Args: args,
	}}
}

// synthesizeCallID derives a tool call identifier from the call contents.
// Collisions are acceptable; the ID only needs to be unique within a turn.
func synthesizeCallID(name, rawArgs string) string {
	h := fnv.New32a()
	h.Write([]byte(rawArgs))
	return fmt.Sprintf("call_%s_%d", name, h.Sum32()%10000)
}
