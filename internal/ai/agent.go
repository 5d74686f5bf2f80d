package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxToolRounds bounds how many tool round-trips one question may take.
const maxToolRounds = 6

// Agent answers admin questions with Gemini, letting the model call Tools.
type Agent struct {
	client *genai.Client
	model  string
	tools  *Tools
}

func NewAgent(ctx context.Context, apiKey, model string, tools *Tools) (*Agent, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Agent{client: client, model: model, tools: tools}, nil
}

func (a *Agent) Close() error {
	return a.client.Close()
}

func systemPrompt(today string) string {
	return fmt.Sprintf(`Today is %s. You are the assistant of a clinic and pharmacy point-of-sale system.

RULES:
1. UPDATE: If a user asks to change a product price by NAME, do NOT ask for the ID.
   Call 'check_inventory' to find the ID, then call 'update_product_price'.
2. READ: For price, cost, stock or category questions call 'check_inventory' and answer from it.
3. REORDER: For "what should I reorder" or low stock questions call 'get_low_stock'.
4. SALES: For revenue or sales questions call 'get_revenue_report'. Dates are YYYY-MM-DD.
Answer briefly.`, today)
}

// Ask sends one question and follows tool calls until the model answers in text.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt(a.tools.now().Format("2006-01-02"))))
	model.Tools = []*genai.Tool{{FunctionDeclarations: a.tools.Declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return replyText(resp), nil
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.tools.Call(ctx, call.Name, call.Args)
			if err != nil {
				return "", fmt.Errorf("tool %s: %w", call.Name, err)
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: result})
		}
		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return "", errors.New("assistant did not finish within the tool call limit")
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "I completed the action."
	}
	return b.String()
}
