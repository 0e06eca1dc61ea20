package tmdb

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

// Status tags a lookup outcome so the degrade-to-placeholder branch is an
// explicit variant, not a catch-all.
type Status int

const (
	StatusOK Status = iota
	StatusMiss
	StatusError
)

// Match is the catalog's best match for a title. Rating is on TMDB's 0-10
// scale.
type Match struct {
	PosterURL string
	Year      int
	Rating    float64
}

type Result struct {
	Status Status
	Match  Match
	Err    error
}

// Client looks up a single best-match movie record. One call per candidate;
// no retries and no second-catalog fallback.
type Client interface {
	Lookup(ctx context.Context, title string) Result
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) Client {
	baseURL := strings.TrimRight(utils.GetEnv("MOVIE_CATALOG_URL", "http://localhost:8090/api/movie-lookup", log), "/")
	timeoutSec := utils.GetEnvAsInt("CATALOG_TIMEOUT_SECONDS", 15, log)
	return NewClientWithConfig(log, baseURL, &http.Client{Timeout: time.Duration(timeoutSec) * time.Second})
}

func NewClientWithConfig(log *logger.Logger, baseURL string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &client{
		log:        log.With("client", "TMDBClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type lookupResponse struct {
	Poster string  `json:"poster"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
}

func (c *client) Lookup(ctx context.Context, title string) Result {
	endpoint := c.baseURL + "?title=" + url.QueryEscape(title)
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
		return Result{Status: StatusError, Err: fmt.Errorf("movie catalog status %d", resp.StatusCode)}
	}

	var parsed lookupResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{Status: StatusError, Err: err}
	}
	if parsed.Poster == "" && parsed.Year == 0 && parsed.Rating == 0 {
		return Result{Status: StatusMiss}
	}
	return Result{
		Status: StatusOK,
		Match: Match{
			PosterURL: parsed.Poster,
			Year:      parsed.Year,
			Rating:    parsed.Rating,
		},
	}
}
