package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/smart-advisor-backend/internal/clients/googlebooks"
	"github.com/yungbote/smart-advisor-backend/internal/clients/openai"
	"github.com/yungbote/smart-advisor-backend/internal/clients/tmdb"
	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/types"
)

type fakeGenerator struct {
	calls      int
	failFirstN int
	candidates []types.Candidate
}

func (fg *fakeGenerator) GenerateRecommendations(ctx context.Context, answers types.AnswerSet, contentType string, userAge int) ([]types.Candidate, error) {
	fg.calls++
	if fg.calls <= fg.failFirstN {
		return nil, &openai.GenerationError{Reason: fmt.Sprintf("scripted failure %d", fg.calls)}
	}
	return fg.candidates, nil
}

func (fg *fakeGenerator) GenerateQuestions(ctx context.Context, contentType string, userAge int) ([]types.Question, error) {
	return nil, &openai.GenerationError{Reason: "not implemented"}
}

type fakeMovieCatalog struct {
	calls  int
	result tmdb.Result
}

func (fm *fakeMovieCatalog) Lookup(ctx context.Context, title string) tmdb.Result {
	fm.calls++
	return fm.result
}

type fakeBookCatalog struct {
	calls  int
	result googlebooks.Result
}

func (fb *fakeBookCatalog) Lookup(ctx context.Context, title, author string) googlebooks.Result {
	fb.calls++
	return fb.result
}

type fakeRecRepo struct {
	failCreate bool
	created    []*types.Recommendation
	rows       map[uuid.UUID]*types.Recommendation
}

func newFakeRecRepo() *fakeRecRepo {
	return &fakeRecRepo{rows: map[uuid.UUID]*types.Recommendation{}}
}

func (fr *fakeRecRepo) Create(ctx context.Context, tx *gorm.DB, recs []*types.Recommendation) ([]*types.Recommendation, error) {
	if fr.failCreate {
		return nil, errors.New("scripted storage failure")
	}
	for _, r := range recs {
		r.CreatedAt = time.Now()
		fr.rows[r.ID] = r
	}
	fr.created = append(fr.created, recs...)
	return recs, nil
}

func (fr *fakeRecRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Recommendation, error) {
	var out []*types.Recommendation
	for _, r := range fr.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (fr *fakeRecRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error) {
	r, ok := fr.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (fr *fakeRecRepo) SetFavorited(ctx context.Context, tx *gorm.DB, id uuid.UUID, favorited bool) error {
	r, ok := fr.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.IsFavorited = favorited
	return nil
}

func (fr *fakeRecRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(fr.rows, id)
	return nil
}

type pipelineFixture struct {
	service   *recommendationService
	generator *fakeGenerator
	movies    *fakeMovieCatalog
	books     *fakeBookCatalog
	recRepo   *fakeRecRepo
	slept     []time.Duration
}

func newPipelineFixture(t *testing.T, generator *fakeGenerator, movies *fakeMovieCatalog, books *fakeBookCatalog, recRepo *fakeRecRepo) *pipelineFixture {
	t.Helper()
	svc := NewRecommendationService(nil, logger.NewNop(), generator, movies, books, recRepo)
	rs, ok := svc.(*recommendationService)
	if !ok {
		t.Fatalf("unexpected service implementation")
	}
	fx := &pipelineFixture{service: rs, generator: generator, movies: movies, books: books, recRepo: recRepo}
	rs.sleep = func(d time.Duration) { fx.slept = append(fx.slept, d) }
	rs.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return fx
}

func movieCandidate() types.Candidate {
	return types.Candidate{
		Type:        types.ContentTypeMovie,
		Title:       "Arrival",
		Director:    "Denis Villeneuve",
		Year:        2016,
		Genres:      []string{"sci-fi", "drama"},
		Description: "A linguist decodes an alien language.",
		Explanation: "You asked for thoughtful sci-fi.",
	}
}

func bookCandidate() types.Candidate {
	return types.Candidate{
		Type:        types.ContentTypeBook,
		Title:       "The Left Hand of Darkness",
		Author:      "Ursula K. Le Guin",
		Genres:      []string{"sci-fi"},
		Description: "An envoy on a winter planet.",
		Explanation: "Matches your taste for immersive worlds.",
	}
}

func okMovieResult() tmdb.Result {
	return tmdb.Result{Status: tmdb.StatusOK, Match: tmdb.Match{PosterURL: "https://img.example/arrival.jpg", Year: 2016, Rating: 7.9}}
}

func okBookResult() googlebooks.Result {
	return googlebooks.Result{Status: googlebooks.StatusOK, Match: googlebooks.Match{CoverURL: "https://img.example/lefthand.jpg", Year: 1969, Rating: 4.1}}
}

func TestGenerate_CandidateCountPerContentType(t *testing.T) {
	cases := []struct {
		contentType string
		candidates  []types.Candidate
		want        int
	}{
		{types.ContentTypeMovie, []types.Candidate{movieCandidate()}, 1},
		{types.ContentTypeBook, []types.Candidate{bookCandidate()}, 1},
		{types.ContentTypeBoth, []types.Candidate{movieCandidate(), bookCandidate()}, 2},
	}
	for _, tc := range cases {
		fx := newPipelineFixture(t,
			&fakeGenerator{candidates: tc.candidates},
			&fakeMovieCatalog{result: okMovieResult()},
			&fakeBookCatalog{result: okBookResult()},
			newFakeRecRepo(),
		)
		results, err := fx.service.Generate(context.Background(), uuid.New(), nil, tc.contentType, 30)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.contentType, err)
		}
		if len(results) != tc.want {
			t.Fatalf("%s: expected %d results, got %d", tc.contentType, tc.want, len(results))
		}
	}
}

func TestGenerate_NoFieldLossAndCatalogOverwrite(t *testing.T) {
	cand := bookCandidate() // no year from the generator
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{cand}},
		&fakeMovieCatalog{result: okMovieResult()},
		&fakeBookCatalog{result: okBookResult()},
		newFakeRecRepo(),
	)
	results, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeBook, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := results[0].Recommendation
	if got.Title != cand.Title || got.Author != cand.Author || got.Description != cand.Description || got.Explanation != cand.Explanation {
		t.Fatalf("generator fields lost through enrichment: %+v", got)
	}
	if len(got.Genres) != len(cand.Genres) {
		t.Fatalf("genres lost through enrichment: %v", got.Genres)
	}
	if got.Year != 1969 {
		t.Fatalf("expected catalog year 1969, got %d", got.Year)
	}
	if got.PosterURL != "https://img.example/lefthand.jpg" || got.Rating != 4.1 {
		t.Fatalf("catalog enrichment not applied: %+v", got)
	}
}

func TestGenerate_EmptyCatalogFieldsNeverOverwrite(t *testing.T) {
	cand := movieCandidate() // year 2016 from the generator
	partial := tmdb.Result{Status: tmdb.StatusOK, Match: tmdb.Match{Rating: 8.2}}
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{cand}},
		&fakeMovieCatalog{result: partial},
		&fakeBookCatalog{result: okBookResult()},
		newFakeRecRepo(),
	)
	results, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeMovie, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := results[0].Recommendation
	if got.Year != 2016 {
		t.Fatalf("generator year overwritten by empty catalog value: %d", got.Year)
	}
	if got.Rating != 8.2 {
		t.Fatalf("expected catalog rating 8.2, got %v", got.Rating)
	}
	if got.PosterURL != MoviePlaceholderPoster {
		t.Fatalf("expected placeholder poster for missing catalog poster, got %q", got.PosterURL)
	}
}

func TestGenerate_MovieCatalogUnreachableDegradesToPlaceholders(t *testing.T) {
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{movieCandidate()}},
		&fakeMovieCatalog{result: tmdb.Result{Status: tmdb.StatusError, Err: errors.New("connection refused")}},
		&fakeBookCatalog{result: okBookResult()},
		newFakeRecRepo(),
	)
	results, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeMovie, 30)
	if err != nil {
		t.Fatalf("catalog failure must never fail the pipeline: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0].Recommendation
	if got.PosterURL != MoviePlaceholderPoster {
		t.Fatalf("expected placeholder poster, got %q", got.PosterURL)
	}
	if got.Rating != MovieFallbackRating {
		t.Fatalf("expected fallback rating %v, got %v", MovieFallbackRating, got.Rating)
	}
	// Generator supplied 2016, so the injected current year must not apply.
	if got.Year != 2016 {
		t.Fatalf("expected generator year kept, got %d", got.Year)
	}
}

func TestGenerate_BookCatalogMissUsesBookPlaceholdersAndCurrentYear(t *testing.T) {
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{bookCandidate()}},
		&fakeMovieCatalog{result: okMovieResult()},
		&fakeBookCatalog{result: googlebooks.Result{Status: googlebooks.StatusMiss}},
		newFakeRecRepo(),
	)
	results, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeBook, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := results[0].Recommendation
	if got.PosterURL != BookPlaceholderCover {
		t.Fatalf("expected placeholder cover, got %q", got.PosterURL)
	}
	if got.Rating != BookFallbackRating {
		t.Fatalf("expected fallback rating %v, got %v", BookFallbackRating, got.Rating)
	}
	if got.Year != 2026 {
		t.Fatalf("expected injected current year 2026, got %d", got.Year)
	}
}

func TestGenerate_PersistenceFailureKeepsEnrichedResult(t *testing.T) {
	recRepo := newFakeRecRepo()
	recRepo.failCreate = true
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{movieCandidate()}},
		&fakeMovieCatalog{result: okMovieResult()},
		&fakeBookCatalog{result: okBookResult()},
		recRepo,
	)
	results, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeMovie, 30)
	if err != nil {
		t.Fatalf("persistence failure must never fail the pipeline: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Persisted || results[0].Stored != nil {
		t.Fatalf("expected unpersisted result, got %+v", results[0])
	}
	if results[0].Recommendation.Title != "Arrival" {
		t.Fatalf("enriched value missing from result: %+v", results[0])
	}
}

func TestGenerate_PersistsOneRowPerCandidate(t *testing.T) {
	recRepo := newFakeRecRepo()
	userID := uuid.New()
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{movieCandidate(), bookCandidate()}},
		&fakeMovieCatalog{result: okMovieResult()},
		&fakeBookCatalog{result: okBookResult()},
		recRepo,
	)
	results, err := fx.service.Generate(context.Background(), userID, nil, types.ContentTypeBoth, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recRepo.created) != 2 {
		t.Fatalf("expected 2 persisted rows, got %d", len(recRepo.created))
	}
	for _, res := range results {
		if !res.Persisted || res.Stored == nil {
			t.Fatalf("expected persisted result, got %+v", res)
		}
		if res.Stored.UserID != userID {
			t.Fatalf("row not owned by requester: %v", res.Stored.UserID)
		}
		if res.Stored.Genre == "" {
			t.Fatalf("expected comma-joined genres on the row")
		}
	}
}

func TestGenerate_RetrySucceedsWithinBudget(t *testing.T) {
	gen := &fakeGenerator{failFirstN: 2, candidates: []types.Candidate{movieCandidate()}}
	fx := newPipelineFixture(t,
		gen,
		&fakeMovieCatalog{result: okMovieResult()},
		&fakeBookCatalog{result: okBookResult()},
		newFakeRecRepo(),
	)
	results, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeMovie, 30)
	if err != nil {
		t.Fatalf("expected success on the third attempt: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 generator calls, got %d", gen.calls)
	}
	want := []time.Duration{RetryDelay, 2 * RetryDelay}
	if len(fx.slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), fx.slept)
	}
	for i := range want {
		if fx.slept[i] != want[i] {
			t.Fatalf("sleep %d: expected %v, got %v", i, want[i], fx.slept[i])
		}
	}
}

func TestGenerate_RetryExhaustedAfterThreeFailures(t *testing.T) {
	gen := &fakeGenerator{failFirstN: 3, candidates: []types.Candidate{movieCandidate()}}
	movies := &fakeMovieCatalog{result: okMovieResult()}
	fx := newPipelineFixture(t, gen, movies, &fakeBookCatalog{result: okBookResult()}, newFakeRecRepo())

	_, err := fx.service.Generate(context.Background(), uuid.New(), nil, types.ContentTypeMovie, 30)
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	var genErr *openai.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected the last generation error preserved, got %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 generator calls, got %d", gen.calls)
	}
	// Generation failed every attempt, so enrichment must never have run.
	if movies.calls != 0 {
		t.Fatalf("enrichment ran despite generation failure: %d calls", movies.calls)
	}
}

func TestToggleFavoriteAndDelete_OwnershipEnforced(t *testing.T) {
	recRepo := newFakeRecRepo()
	owner := uuid.New()
	stranger := uuid.New()
	row := types.RecommendationFromEnriched(owner, types.ContentTypeMovie, types.EnrichedCandidate{Candidate: movieCandidate(), PosterURL: "x", Rating: 7.0})
	if _, err := recRepo.Create(context.Background(), nil, []*types.Recommendation{row}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	fx := newPipelineFixture(t,
		&fakeGenerator{candidates: []types.Candidate{movieCandidate()}},
		&fakeMovieCatalog{result: okMovieResult()},
		&fakeBookCatalog{result: okBookResult()},
		recRepo,
	)

	if _, err := fx.service.ToggleFavorite(context.Background(), stranger, row.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	rec, err := fx.service.ToggleFavorite(context.Background(), owner, row.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !rec.IsFavorited {
		t.Fatalf("expected is_favorited=true after toggle")
	}
	if err := fx.service.Delete(context.Background(), stranger, row.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if err := fx.service.Delete(context.Background(), owner, row.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := fx.service.ToggleFavorite(context.Background(), owner, row.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
