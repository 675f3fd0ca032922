package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Oracle is the injected text-generation capability. Image is optional; when
// present the provider is asked to read the page image alongside the text.
type Oracle interface {
	Generate(ctx context.Context, model, systemPrompt, userPrompt string, image []byte) (string, error)
}

const maxOutputTokens = 4096

// Client talks to the configured provider. Provider "anthropic" is the
// default; "openai" goes over plain HTTP against the chat completions
// endpoint.
type Client struct {
	Provider        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	HTTPClient      *http.Client
}

func NewClient(provider, anthropicKey, openaiKey string) *Client {
	return &Client{
		Provider:        provider,
		AnthropicAPIKey: anthropicKey,
		OpenAIAPIKey:    openaiKey,
		HTTPClient:      http.DefaultClient,
	}
}

func (c *Client) Generate(ctx context.Context, model, systemPrompt, userPrompt string, image []byte) (string, error) {
	switch c.Provider {
	case "openai":
		if len(image) > 0 {
			log.Printf("llm openai model=%s image context dropped (text-only provider path)", model)
		}
		return c.callOpenAI(ctx, model, systemPrompt, userPrompt)
	default:
		return c.callAnthropic(ctx, model, systemPrompt, userPrompt, image)
	}
}

func (c *Client) callAnthropic(ctx context.Context, model, systemPrompt, userPrompt string, image []byte) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(c.AnthropicAPIKey))

	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(userPrompt)}
	if len(image) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(image)))
	}

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		log.Printf("llm anthropic model=%s error: %v", model, err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic model=%s response size=%d tokens_in=%d tokens_out=%d",
				model, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) callOpenAI(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.OpenAIAPIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Printf("llm openai model=%s error: %v", model, err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}
	if openAIResp.Error != nil {
		log.Printf("llm openai api error: %s", openAIResp.Error.Message)
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	log.Printf("llm openai model=%s response size=%d", model, len(openAIResp.Choices[0].Message.Content))
	return openAIResp.Choices[0].Message.Content, nil
}
