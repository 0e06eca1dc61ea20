package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/utils"
)

type Status int

const (
	StatusOK Status = iota
	StatusMiss
	StatusError
)

// Match is the catalog's best match for a title/author pair. Rating is on
// the books catalog's 0-5 scale.
type Match struct {
	CoverURL string
	Year     int
	Rating   float64
}

type Result struct {
	Status Status
	Match  Match
	Err    error
}

// Client looks up a single best-match book record. One call per candidate;
// no retries and no second-catalog fallback.
type Client interface {
	Lookup(ctx context.Context, title, author string) Result
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) Client {
	baseURL := strings.TrimRight(utils.GetEnv("BOOK_CATALOG_URL", "http://localhost:8090/api/book-lookup", log), "/")
	timeoutSec := utils.GetEnvAsInt("CATALOG_TIMEOUT_SECONDS", 15, log)
	return NewClientWithConfig(log, baseURL, &http.Client{Timeout: time.Duration(timeoutSec) * time.Second})
}

func NewClientWithConfig(log *logger.Logger, baseURL string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &client{
		log:        log.With("client", "GoogleBooksClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type lookupResponse struct {
	Cover  string  `json:"cover"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
}

func (c *client) Lookup(ctx context.Context, title, author string) Result {
	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return Result{Status: StatusError, Err: readErr}
	}
	if resp.StatusCode == http.StatusNotFound {
		return Result{Status: StatusMiss}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Status: StatusError, Err: fmt.Errorf("book catalog status %d", resp.StatusCode)}
	}

	var parsed lookupResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{Status: StatusError, Err: err}
	}
	if parsed.Cover == "" && parsed.Year == 0 && parsed.Rating == 0 {
		return Result{Status: StatusMiss}
	}
	return Result{
		Status: StatusOK,
		Match: Match{
			CoverURL: parsed.Cover,
			Year:     parsed.Year,
			Rating:   parsed.Rating,
		},
	}
}
