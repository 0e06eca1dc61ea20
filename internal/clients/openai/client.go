package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/types"
	"github.com/yungbote/smart-advisor-backend/internal/utils"
)

// GenerationError means the generator was unreachable, answered non-2xx, or
// returned a payload missing required candidate fields. The caller's retry
// wrapper owns recovery; this client never retries.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Client is the generator adapter: questionnaire in, raw candidates out.
type Client interface {
	GenerateRecommendations(ctx context.Context, answers types.AnswerSet, contentType string, userAge int) ([]types.Candidate, error)
	GenerateQuestions(ctx context.Context, contentType string, userAge int) ([]types.Question, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(utils.GetEnv("OPENAI_API_KEY", "", log))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", log), "/")
	model := utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log)
	timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60, log)
	return NewClientWithConfig(log, Config{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}), nil
}

func NewClientWithConfig(log *logger.Logger, cfg Config) Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &client{
		log:        log.With("client", "OpenAIClient"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type recommendationPayload struct {
	MovieRecommendation *types.Candidate `json:"movie_recommendation"`
	BookRecommendation  *types.Candidate `json:"book_recommendation"`
}

type questionsPayload struct {
	Questions []types.Question `json:"questions"`
}

func (c *client) GenerateRecommendations(ctx context.Context, answers types.AnswerSet, contentType string, userAge int) ([]types.Candidate, error) {
	user, err := buildRecommendationPrompt(answers, contentType, userAge)
	if err != nil {
		return nil, &GenerationError{Reason: "building prompt", Err: err}
	}

	raw, err := c.complete(ctx, recommendationSystemPrompt(contentType), user)
	if err != nil {
		return nil, err
	}

	var payload recommendationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &GenerationError{Reason: "decoding generator payload", Err: err}
	}
	return candidatesFromPayload(payload, contentType)
}

func (c *client) GenerateQuestions(ctx context.Context, contentType string, userAge int) ([]types.Question, error) {
	user := fmt.Sprintf("Content type: %s. User age: %d. Produce the questionnaire.", contentType, userAge)

	raw, err := c.complete(ctx, questionsSystemPrompt(), user)
	if err != nil {
		return nil, err
	}

	var payload questionsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &GenerationError{Reason: "decoding questions payload", Err: err}
	}
	if len(payload.Questions) == 0 {
		return nil, &GenerationError{Reason: "generator returned no questions"}
	}
	return payload.Questions, nil
}

// complete issues a single chat-completions call and returns the message
// content. One attempt only; failures surface as GenerationError.
func (c *client) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", &GenerationError{Reason: "encoding request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return "", &GenerationError{Reason: "building request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GenerationError{Reason: "generator unreachable", Err: err}
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", &GenerationError{Reason: "reading generator response", Err: readErr}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GenerationError{Reason: upstreamErrorMessage(resp.StatusCode, raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &GenerationError{Reason: "decoding generator response", Err: err}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &GenerationError{Reason: "generator returned no content"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// upstreamErrorMessage prefers the response body's error message when it
// parses; otherwise the status code stands alone.
func upstreamErrorMessage(status int, raw []byte) string {
	var withObject struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &withObject); err == nil && withObject.Error.Message != "" {
		return fmt.Sprintf("generator status %d: %s", status, withObject.Error.Message)
	}
	var withString struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &withString); err == nil && withString.Error != "" {
		return fmt.Sprintf("generator status %d: %s", status, withString.Error)
	}
	return fmt.Sprintf("generator status %d", status)
}

// candidatesFromPayload validates the generator payload against the
// requested content type. A missing or title-less candidate for any
// requested type fails the whole generation.
func candidatesFromPayload(payload recommendationPayload, contentType string) ([]types.Candidate, error) {
	wantMovie := contentType == types.ContentTypeMovie || contentType == types.ContentTypeBoth
	wantBook := contentType == types.ContentTypeBook || contentType == types.ContentTypeBoth

	var out []types.Candidate
	if wantMovie {
		if payload.MovieRecommendation == nil || strings.TrimSpace(payload.MovieRecommendation.Title) == "" {
			return nil, &GenerationError{Reason: "payload missing movie recommendation"}
		}
		movie := *payload.MovieRecommendation
		movie.Type = types.ContentTypeMovie
		out = append(out, movie)
	}
	if wantBook {
		if payload.BookRecommendation == nil || strings.TrimSpace(payload.BookRecommendation.Title) == "" {
			return nil, &GenerationError{Reason: "payload missing book recommendation"}
		}
		book := *payload.BookRecommendation
		book.Type = types.ContentTypeBook
		out = append(out, book)
	}
	if len(out) == 0 {
		return nil, &GenerationError{Reason: fmt.Sprintf("unsupported content type %q", contentType)}
	}
	return out, nil
}

func buildRecommendationPrompt(answers types.AnswerSet, contentType string, userAge int) (string, error) {
	serialized, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Content type: %s. User age: %d. Questionnaire answers: %s", contentType, userAge, serialized), nil
}

func recommendationSystemPrompt(contentType string) string {
	var want string
	switch contentType {
	case types.ContentTypeBoth:
		want = `both "movie_recommendation" and "book_recommendation"`
	case types.ContentTypeBook:
		want = `"book_recommendation"`
	default:
		want = `"movie_recommendation"`
	}
	return `You are a recommendation engine. Respond with a single JSON object containing ` + want + `. ` +
		`Each recommendation has: "type", "title", "director" (movies), "author" (books), "year", "genres" (array of strings), ` +
		`"description" (one-paragraph synopsis) and "explanation" (why it matches the user's answers). ` +
		`Recommendations must be age-appropriate for the stated user age.`
}

func questionsSystemPrompt() string {
	return `You are a recommendation engine preparing a taste questionnaire. ` +
		`Respond with a single JSON object: {"questions": [{"question": "...", "options": ["..."]}]}. ` +
		`Produce five questions tailored to the requested content type and age.`
}
