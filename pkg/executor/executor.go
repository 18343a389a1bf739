// Package executor runs a chat model against a set of tools until it
// produces a final answer, streaming a state snapshot after every step.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/shared"
	"github.com/sealor/search-agent/pkg/tooling"
)

const (
	StepAgent  = "agent"
	StepAction = "action"
	StepEnd    = "__end__"
)

// DefaultMaxSteps bounds the number of model invocations per Stream call.
const DefaultMaxSteps = 25

var ErrStepLimit = errors.New("executor: step limit reached without a final answer")

// Input is the invocation payload, a conversation history.
type Input struct {
	Messages []openai.ChatCompletionMessageParamUnion
}

// Step is one streamed state snapshot: the step that just ran and the
// message list accumulated up to that point.
type Step struct {
	Name     string
	Messages []openai.ChatCompletionMessageParamUnion
	Err      error
}

type App struct {
	client      openai.Client
	model       string
	reasoning   shared.ReasoningEffort
	tools       []tooling.Tool
	toolByName  map[string]tooling.Tool
	maxSteps    int
	deltaWriter io.Writer
}

type Option func(*App)

func WithMaxSteps(n int) Option {
	return func(a *App) {
		a.maxSteps = n
	}
}

// WithDeltaWriter mirrors content and reasoning deltas to w while the
// model response is still streaming.
func WithDeltaWriter(w io.Writer) Option {
	return func(a *App) {
		a.deltaWriter = w
	}
}

func WithReasoningEffort(effort shared.ReasoningEffort) Option {
	return func(a *App) {
		a.reasoning = effort
	}
}

func New(client openai.Client, model string, tools []tooling.Tool, opts ...Option) *App {
	app := &App{
		client:     client,
		model:      model,
		tools:      tools,
		toolByName: make(map[string]tooling.Tool, len(tools)),
		maxSteps:   DefaultMaxSteps,
	}
	for _, tool := range tools {
		app.toolByName[tool.Name()] = tool
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Stream runs the agent loop and yields a Step after each model call and
// each tool dispatch, ending with a terminal "__end__" snapshot. The channel
// is closed when the loop finishes. Every call starts from its own copy
// of the input, so an App can be invoked repeatedly or concurrently.
func (a *App) Stream(ctx context.Context, input Input) <-chan Step {
	out := make(chan Step)
	go func() {
		defer close(out)
		a.run(ctx, input, out)
	}()
	return out
}

// Invoke drains the stream and returns the final message list. A stream
// that ends without a terminal step means the loop was cut short, so the
// context error is reported even when the error step itself was dropped.
func (a *App) Invoke(ctx context.Context, input Input) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	finished := false
	for step := range a.Stream(ctx, input) {
		if step.Err != nil {
			return nil, step.Err
		}
		messages = step.Messages
		finished = step.Name == StepEnd
	}
	if !finished {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("executor: stream ended without a final step")
	}
	return messages, nil
}

func (a *App) run(ctx context.Context, input Input, out chan<- Step) {
	messages := slices.Clone(input.Messages)

	param := openai.ChatCompletionNewParams{
		Model: a.model,
	}
	if a.reasoning != "" {
		param.ReasoningEffort = a.reasoning
	}
	for _, tool := range a.tools {
		param.Tools = append(param.Tools, tool.Param)
	}

	for step := 0; ; step++ {
		if step >= a.maxSteps {
			emit(ctx, out, Step{Name: StepEnd, Messages: slices.Clone(messages), Err: ErrStepLimit})
			return
		}

		param.Messages = messages
		stream := a.client.Chat.Completions.NewStreaming(ctx, param)
		acc, err := a.consume(ctx, stream)
		if closeErr := stream.Close(); err == nil {
			err = closeErr
		}
		if err == nil && len(acc.Choices) == 0 {
			err = errors.New("executor: model returned no choices")
		}
		if err != nil {
			emit(ctx, out, Step{Name: StepAgent, Messages: slices.Clone(messages), Err: err})
			return
		}

		message := acc.Choices[0].Message
		messages = append(messages, message.ToParam())
		if !emit(ctx, out, Step{Name: StepAgent, Messages: slices.Clone(messages)}) {
			return
		}

		if len(message.ToolCalls) == 0 {
			break
		}

		for _, toolCall := range message.ToolCalls {
			tool, ok := a.toolByName[toolCall.Function.Name]
			if ok {
				messages = append(messages, tool.Call(ctx, toolCall))
			} else {
				messages = append(messages, openai.ToolMessage(
					fmt.Sprint("Function for Tool Call missing: ", toolCall.Function.Name), toolCall.ID))
			}
		}
		if !emit(ctx, out, Step{Name: StepAction, Messages: slices.Clone(messages)}) {
			return
		}
	}

	emit(ctx, out, Step{Name: StepEnd, Messages: slices.Clone(messages)})
}

func (a *App) consume(ctx context.Context, stream *ssestream.Stream[openai.ChatCompletionChunk]) (openai.ChatCompletionAccumulator, error) {
	acc := openai.ChatCompletionAccumulator{}

loop:
	for stream.Next() {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		chunk := stream.Current()
		acc.AddChunk(chunk)

		if a.deltaWriter != nil {
			a.writeDeltas(chunk, &acc)
		}
	}

	if err := stream.Err(); err != nil {
		return acc, err
	}
	return acc, ctx.Err()
}

func (a *App) writeDeltas(chunk openai.ChatCompletionChunk, acc *openai.ChatCompletionAccumulator) {
	w := a.deltaWriter

	if tool, ok := acc.JustFinishedToolCall(); ok {
		fmt.Fprintln(w, "Tool call stream finished:", tool.Index, tool.Name, tool.Arguments)
	}
	if refusal, ok := acc.JustFinishedRefusal(); ok {
		fmt.Fprintln(w, "Refusal stream finished:", refusal)
	}

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]

		reasoningJSON, ok := choice.Delta.JSON.ExtraFields["reasoning"]
		var reasoning string
		if ok {
			json.Unmarshal([]byte(reasoningJSON.Raw()), &reasoning)
		}
		if len(reasoning) > 0 {
			fmt.Fprint(w, reasoning)
		}

		if len(choice.Delta.Content) > 0 {
			fmt.Fprint(w, choice.Delta.Content)
		}
	}
}

// emit hands a waiting receiver the step even when the context is already
// canceled, so the select below cannot drop it by picking ctx.Done first.
func emit(ctx context.Context, out chan<- Step, step Step) bool {
	select {
	case out <- step:
		return true
	default:
	}

	select {
	case out <- step:
		return true
	case <-ctx.Done():
		return false
	}
}
