// Package tooling provides functions for the tool API
package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/sealor/search-agent/pkg/websearch"
)

// Tool pairs a function descriptor with the function the executor dispatches to.
type Tool struct {
	Param openai.ChatCompletionToolUnionParam
	Call  func(context.Context, openai.ChatCompletionMessageToolCallUnion) openai.ChatCompletionMessageParamUnion
}

func (t Tool) Name() string {
	if t.Param.OfFunction == nil {
		return ""
	}
	return t.Param.OfFunction.Function.Name
}

var WebSearchTool openai.ChatCompletionToolUnionParam = openai.ChatCompletionToolUnionParam{
	OfFunction: &openai.ChatCompletionFunctionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "web_search",
			Description: openai.String("Use this function to search the web for current information."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]string{
						"type": "string",
					},
				},
				"required": []string{"query"},
			},
		},
	},
}

type WebSearchArguments struct {
	Query string `json:"query"`
}

func NewWebSearch(client *websearch.Client) Tool {
	return Tool{Param: WebSearchTool, Call: func(ctx context.Context, toolCall openai.ChatCompletionMessageToolCallUnion) openai.ChatCompletionMessageParamUnion {
		var args WebSearchArguments
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
			return openai.ToolMessage(fmt.Sprint("Error calling tool web_search():", err), toolCall.ID)
		}
		if args.Query == "" {
			return openai.ToolMessage(fmt.Sprint("Error calling tool web_search():", "parameter query is empty"), toolCall.ID)
		}

		results, err := client.Search(ctx, args.Query)
		if err != nil {
			return openai.ToolMessage(fmt.Sprint("Error calling tool web_search():", err), toolCall.ID)
		}

		data, err := json.Marshal(results)
		if err != nil {
			return openai.ToolMessage(fmt.Sprint("Error calling tool web_search():", err), toolCall.ID)
		}

		return openai.ToolMessage(string(data), toolCall.ID)
	}}
}
