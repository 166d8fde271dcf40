package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/errors"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultBaseURL is the Generative Language REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int64

	// BaseURL and HTTPClient default to DefaultBaseURL and http.DefaultClient.
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini generates text with the Generative Language generateContent call.
type Gemini struct {
	cfg    GeminiConfig
	client *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int64 `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGemini creates a Gemini generator. A missing API key is a service error.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.KindService, "GOOGLE_API_KEY is not set")
	}
	cfg.Model = strings.TrimPrefix(cfg.Model, "models/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Gemini{cfg: cfg, client: client}, nil
}

// Generate sends prompt as a single user turn and returns the first candidate's text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if g.cfg.MaxOutputTokens > 0 {
		req.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: g.cfg.MaxOutputTokens}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(errors.KindService, err, "could not encode Gemini request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, url.QueryEscape(g.cfg.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.KindService, err, "could not build Gemini request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(errors.KindService, err, "Gemini request failed")
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", errors.Wrap(errors.KindService, err, "could not read Gemini response")
	}

	var resp geminiResponse
	decodeErr := json.Unmarshal(data, &resp)
	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", errors.New(errors.KindService, "Gemini API error (status %d): %s", httpResp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", errors.Wrap(errors.KindService, decodeErr, "malformed Gemini response")
	}
	if resp.Error != nil {
		return "", errors.New(errors.KindService, "Gemini API error (status %d): %s", resp.Error.Code, resp.Error.Message)
	}

	for _, c := range resp.Candidates {
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", errors.New(errors.KindService, "Gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
	}
	return "", errors.New(errors.KindService, "Gemini returned no content")
}
