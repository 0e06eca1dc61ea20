package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/types"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("missing bearer auth: %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(content))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(srv *httptest.Server) Client {
	return NewClientWithConfig(logger.NewNop(), Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "test-model",
		HTTPClient: srv.Client(),
	})
}

const bothPayload = `{
	"movie_recommendation": {"title": "Arrival", "director": "Denis Villeneuve", "year": 2016, "genres": ["sci-fi"], "description": "d", "explanation": "e"},
	"book_recommendation": {"title": "The Left Hand of Darkness", "author": "Ursula K. Le Guin", "genres": ["sci-fi"], "description": "d", "explanation": "e"}
}`

func TestGenerateRecommendations_Both(t *testing.T) {
	srv := chatServer(t, bothPayload, http.StatusOK)
	defer srv.Close()

	cands, err := testClient(srv).GenerateRecommendations(context.Background(), types.AnswerSet{{Question: "q", Answer: "a"}}, types.ContentTypeBoth, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Type != types.ContentTypeMovie || cands[0].Title != "Arrival" {
		t.Fatalf("unexpected movie candidate: %+v", cands[0])
	}
	if cands[1].Type != types.ContentTypeBook || cands[1].Author != "Ursula K. Le Guin" {
		t.Fatalf("unexpected book candidate: %+v", cands[1])
	}
}

func TestGenerateRecommendations_SingleType(t *testing.T) {
	srv := chatServer(t, bothPayload, http.StatusOK)
	defer srv.Close()

	cands, err := testClient(srv).GenerateRecommendations(context.Background(), nil, types.ContentTypeMovie, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 || cands[0].Type != types.ContentTypeMovie {
		t.Fatalf("expected exactly the movie candidate, got %+v", cands)
	}
}

func TestGenerateRecommendations_MissingBookForBothFails(t *testing.T) {
	payload := `{"movie_recommendation": {"title": "Arrival", "genres": [], "description": "d", "explanation": "e"}}`
	srv := chatServer(t, payload, http.StatusOK)
	defer srv.Close()

	_, err := testClient(srv).GenerateRecommendations(context.Background(), nil, types.ContentTypeBoth, 30)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(genErr.Reason, "book") {
		t.Fatalf("error should name the missing candidate: %v", genErr)
	}
}

func TestGenerateRecommendations_UpstreamErrorBodySurfaced(t *testing.T) {
	srv := chatServer(t, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	defer srv.Close()

	_, err := testClient(srv).GenerateRecommendations(context.Background(), nil, types.ContentTypeMovie, 30)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("upstream error message not surfaced: %v", err)
	}
}

func TestGenerateRecommendations_UnreachableIsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClientWithConfig(logger.NewNop(), Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := c.GenerateRecommendations(context.Background(), nil, types.ContentTypeMovie, 30)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for unreachable upstream, got %v", err)
	}
}

func TestGenerateQuestions(t *testing.T) {
	payload := `{"questions": [{"question": "mood?", "options": ["tense", "light"]}]}`
	srv := chatServer(t, payload, http.StatusOK)
	defer srv.Close()

	questions, err := testClient(srv).GenerateQuestions(context.Background(), types.ContentTypeMovie, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 || questions[0].Question != "mood?" || len(questions[0].Options) != 2 {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestGenerateQuestions_EmptyPayloadFails(t *testing.T) {
	srv := chatServer(t, `{"questions": []}`, http.StatusOK)
	defer srv.Close()

	_, err := testClient(srv).GenerateQuestions(context.Background(), types.ContentTypeMovie, 30)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for empty questions, got %v", err)
	}
}
