package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/sealor/search-agent/pkg/executor"
	"github.com/sealor/search-agent/pkg/persistence"
	"github.com/sealor/search-agent/pkg/tooling"
	"github.com/sealor/search-agent/pkg/websearch"
	"golang.org/x/term"
)

func GetEnv(name, fallback string) string {
	value, ok := os.LookupEnv(name)
	if ok {
		return value
	} else {
		return fallback
	}
}

func main() {
	apiURL := flag.String("api", GetEnv("OPENAI_URL", "http://127.0.0.1:11434/v1"), "URL for the OpenAI API endpoint")
	model := flag.String("model", "qwen3:1.7b", "Technical name of the LLM")
	userMessage := flag.String("message", "", "User message")
	systemMessage := flag.String("system", "", "System message")
	reasoning := flag.String("reasoning", "", "Level of reasoning (e.g. none, low, medium, high)")
	sessionFile := flag.String("session-file", "", "Use this file to save and resume chat sessions")
	searchURL := flag.String("search-api", GetEnv("TAVILY_URL", websearch.DefaultBaseURL), "URL for the search API endpoint")
	maxResults := flag.Int("max-results", 1, "Maximum number of search results per query")
	maxSteps := flag.Int("max-steps", executor.DefaultMaxSteps, "Maximum number of model calls per turn")
	activeLog := flag.Bool("log", false, "Activate logging")

	flag.Parse()

	options := []option.RequestOption{
		option.WithBaseURL(*apiURL),
	}
	apiKey := GetEnv("OPENAI_API_KEY", "")
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}
	if *activeLog {
		options = append(options, option.WithDebugLog(nil))
	}
	client := openai.NewClient(options...)

	var messages []openai.ChatCompletionMessageParamUnion
	if *sessionFile != "" {
		session, err := persistence.Resume(*sessionFile)
		if err != nil {
			log.Fatalln("ERROR:", err)
		}
		messages = session.MessageParams()
		if *model == "" {
			*model = session.Model
		}
		if *reasoning == "" {
			*reasoning = session.Reasoning
		}
	}

	if *systemMessage != "" {
		messages = append(messages, openai.SystemMessage(*systemMessage))
	}

	search := websearch.New(*searchURL, GetEnv("TAVILY_API_KEY", ""), *maxResults)
	tools := []tooling.Tool{tooling.NewWebSearch(search)}

	t := term.NewTerminal(os.Stdin, "> ")

	opts := []executor.Option{
		executor.WithMaxSteps(*maxSteps),
		executor.WithDeltaWriter(t),
	}
	if *reasoning != "" {
		opts = append(opts, executor.WithReasoningEffort(shared.ReasoningEffort(*reasoning)))
	}
	app := executor.New(client, *model, tools, opts...)

	for {
		prompt := *userMessage
		if len(*userMessage) == 0 {
			fd := int(os.Stdin.Fd())
			oldState, err := term.MakeRaw(fd)
			if err != nil {
				fmt.Fprintln(t, "Fatal:", err)
				break
			}

			width, height, err := term.GetSize(fd)
			if err != nil {
				fmt.Fprintln(t, "Fatal:", err)
				break
			}
			t.SetSize(width, height)

			prompt, err = t.ReadLine()
			restoreErr := term.Restore(fd, oldState)

			if err != nil {
				if err != io.EOF {
					fmt.Fprintln(t, "Fatal:", err)
				}
				break
			}
			if restoreErr != nil {
				fmt.Fprintln(t, "Fatal:", restoreErr)
				break
			}
		}

		if prompt == "" {
			continue
		}

		messages = append(messages, openai.UserMessage(prompt))

		messages = runTurn(t, app, messages)

		if *sessionFile != "" {
			if err := persistence.Save(*sessionFile, persistence.NewSession(*model, *reasoning, messages)); err != nil {
				log.Fatalln("ERROR:", err)
			}
		}

		if len(*userMessage) > 0 {
			break
		}
	}
}

func runTurn(w io.Writer, app *executor.App, messages []openai.ChatCompletionMessageParamUnion) []openai.ChatCompletionMessageParamUnion {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	final := messages
	for step := range app.Stream(ctx, executor.Input{Messages: messages}) {
		if step.Err != nil {
			fmt.Fprintln(w, "Fatal:", step.Err)
			break
		}

		data, err := json.Marshal(step.Messages)
		if err != nil {
			fmt.Fprintln(w, "Fatal:", err)
			break
		}
		fmt.Fprintf(w, "%s: %s\n", step.Name, data)
		fmt.Fprintln(w, "----")

		final = step.Messages
	}

	fmt.Fprintln(w, "")
	return final
}
