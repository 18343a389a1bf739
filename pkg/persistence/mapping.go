package persistence

import (
	"fmt"

	"github.com/openai/openai-go/v3"
)

func NewSession(model, reasoning string, messages []openai.ChatCompletionMessageParamUnion) *Session {
	session := &Session{Model: model, Reasoning: reasoning}
	for _, param := range messages {
		session.Messages = append(session.Messages, newMessage(param))
	}
	return session
}

func newMessage(param openai.ChatCompletionMessageParamUnion) Message {
	switch {
	case param.OfAssistant != nil:
		m := param.OfAssistant
		message := Message{Role: "assistant", Content: m.Content.OfString.String()}
		for _, call := range m.ToolCalls {
			message.ToolCalls = append(message.ToolCalls, newToolCall(call))
		}
		return message
	case param.OfDeveloper != nil:
		return Message{Role: "developer", Content: param.OfDeveloper.Content.OfString.String()}
	case param.OfSystem != nil:
		return Message{Role: "system", Content: param.OfSystem.Content.OfString.String()}
	case param.OfTool != nil:
		return Message{Role: "tool", Content: param.OfTool.Content.OfString.String(), ToolCallID: param.OfTool.ToolCallID}
	case param.OfUser != nil:
		return Message{Role: "user", Content: param.OfUser.Content.OfString.String()}
	}

	return Message{Role: *param.GetRole()}
}

func newToolCall(call openai.ChatCompletionMessageToolCallUnionParam) ToolCall {
	if call.OfFunction == nil {
		return ToolCall{ID: fmt.Sprint("ERROR: mapping failed for ", call)}
	}

	f := call.OfFunction
	return ToolCall{ID: f.ID, Name: f.Function.Name, Arguments: f.Function.Arguments}
}

func (s *Session) MessageParams() []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion

	for _, message := range s.Messages {
		var param openai.ChatCompletionMessageParamUnion

		switch message.Role {
		case "assistant":
			param = openai.AssistantMessage(message.Content)
			for _, call := range message.ToolCalls {
				param.OfAssistant.ToolCalls = append(param.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID:       call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{Name: call.Name, Arguments: call.Arguments},
					},
				})
			}
		case "developer":
			param = openai.DeveloperMessage(message.Content)
		case "system":
			param = openai.SystemMessage(message.Content)
		case "tool":
			param = openai.ToolMessage(message.Content, message.ToolCallID)
		case "user":
			param = openai.UserMessage(message.Content)
		}

		params = append(params, param)
	}

	return params
}
