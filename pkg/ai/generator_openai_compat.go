package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatGenerator calls any OpenAI-compatible /v1/chat/completions
// endpoint. Works with OpenAI itself, vLLM, LiteLLM, OpenRouter, and
// self-hosted models.
type OpenAICompatGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	imageModel  string
	temperature *float64
	jsonMode    bool
	httpClient  *http.Client
}

// Option tunes the request the generator sends.
type Option func(*OpenAICompatGenerator)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *OpenAICompatGenerator) { g.temperature = &t }
}

// WithJSONResponse requests the json_object response format, for providers
// that support enforcing valid JSON output.
func WithJSONResponse() Option {
	return func(g *OpenAICompatGenerator) { g.jsonMode = true }
}

// WithImageModel sets the model used for image edits.
func WithImageModel(model string) Option {
	return func(g *OpenAICompatGenerator) { g.imageModel = strings.TrimSpace(model) }
}

// NewOpenAICompatGenerator builds an OpenAI-compatible TextGenerator.
// baseURL should include the /v1 prefix, e.g. "https://api.openai.com/v1".
func NewOpenAICompatGenerator(baseURL, apiKey, model string, opts ...Option) *OpenAICompatGenerator {
	g := &OpenAICompatGenerator{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// GenerateText implements TextGenerator using the chat completions API.
func (g *OpenAICompatGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.model == "" {
		return "", fmt.Errorf("generation model required")
	}
	messages := make([]oaiMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: systemPrompt})
	}
	if strings.TrimSpace(userPrompt) != "" {
		messages = append(messages, oaiMessage{Role: "user", Content: userPrompt})
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("at least one prompt required")
	}

	reqBody := oaiChatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	}
	if g.jsonMode {
		reqBody.ResponseFormat = &oaiResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("completion api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("completion api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("completion decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from completion api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from completion api")
	}
	return text, nil
}

// EditImage implements ImageEditor using the images/edits API. The
// request goes out as multipart form data; the response carries the
// result base64-encoded.
func (g *OpenAICompatGenerator) EditImage(ctx context.Context, prompt string, image []byte, filename string) ([]byte, error) {
	if g.imageModel == "" {
		return nil, fmt.Errorf("image model required")
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("image required")
	}
	if filename == "" {
		filename = "image.png"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model", g.imageModel); err != nil {
		return nil, err
	}
	if err := form.WriteField("prompt", prompt); err != nil {
		return nil, err
	}
	if err := form.WriteField("size", "1024x1024"); err != nil {
		return nil, err
	}
	if err := form.WriteField("quality", "high"); err != nil {
		return nil, err
	}
	part, err := form.CreateFormFile("image[]", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	url := g.baseURL + "/images/edits"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image edit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("image edit api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("image edit api error: %s", resp.Status)
	}

	var imgResp oaiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgResp); err != nil {
		return nil, fmt.Errorf("image edit decode: %w", err)
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("empty response from image edit api")
	}
	decoded, err := base64.StdEncoding.DecodeString(imgResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("image edit payload: %w", err)
	}
	return decoded, nil
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponseFormat struct {
	Type string `json:"type"`
}

type oaiChatRequest struct {
	Model          string             `json:"model"`
	Messages       []oaiMessage       `json:"messages"`
	Temperature    *float64           `json:"temperature,omitempty"`
	ResponseFormat *oaiResponseFormat `json:"response_format,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
