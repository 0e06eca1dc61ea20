package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/smart-advisor-backend/internal/clients/googlebooks"
	"github.com/yungbote/smart-advisor-backend/internal/clients/openai"
	"github.com/yungbote/smart-advisor-backend/internal/clients/tmdb"
	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/repos"
	"github.com/yungbote/smart-advisor-backend/internal/types"
)

const (
	// MaxRetries is the number of retries after the first attempt, so the
	// attempt budget is MaxRetries+1.
	MaxRetries = 2
	// RetryDelay scales linearly with the attempt number: the sleep before
	// attempt n is RetryDelay * n.
	RetryDelay = 1 * time.Second

	// Placeholder enrichment values. A failed catalog lookup degrades the
	// candidate to these instead of failing it, so the UI never renders a
	// missing poster or rating.
	MoviePlaceholderPoster = "https://via.placeholder.com/300x450?text=No+Poster"
	BookPlaceholderCover   = "https://via.placeholder.com/300x450?text=No+Cover"
	MovieFallbackRating    = 7.5
	BookFallbackRating     = 4.2
)

// RecommendationResult is one pipeline output item. Stored is the row as
// confirmed by storage; it is nil when the write failed, in which case the
// enriched in-memory value still reaches the user for this session.
type RecommendationResult struct {
	Recommendation types.EnrichedCandidate `json:"recommendation"`
	Stored         *types.Recommendation   `json:"stored,omitempty"`
	Persisted      bool                    `json:"persisted"`
}

type RecommendationService interface {
	Generate(ctx context.Context, userID uuid.UUID, answers types.AnswerSet, contentType string, userAge int) ([]RecommendationResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]*types.Recommendation, error)
	ToggleFavorite(ctx context.Context, userID, recID uuid.UUID) (*types.Recommendation, error)
	Delete(ctx context.Context, userID, recID uuid.UUID) error
}

type recommendationService struct {
	db        *gorm.DB
	log       *logger.Logger
	generator openai.Client
	movies    tmdb.Client
	books     googlebooks.Client
	recRepo   repos.RecommendationRepo
	tracer    trace.Tracer

	// Injected for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	generator openai.Client,
	movies tmdb.Client,
	books googlebooks.Client,
	recRepo repos.RecommendationRepo,
) RecommendationService {
	serviceLog := log.With("service", "RecommendationService")
	return &recommendationService{
		db:        db,
		log:       serviceLog,
		generator: generator,
		movies:    movies,
		books:     books,
		recRepo:   recRepo,
		tracer:    otel.Tracer("recommendation"),
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Generate runs the full pipeline (generate, enrich, persist) with a linear
// backoff retry around the whole of it. Attempts share nothing: a retry may
// produce different candidates than the previous attempt.
func (rs *recommendationService) Generate(ctx context.Context, userID uuid.UUID, answers types.AnswerSet, contentType string, userAge int) ([]RecommendationResult, error) {
	ctx, span := rs.tracer.Start(ctx, "recommendation.generate")
	defer span.End()

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			rs.sleep(RetryDelay * time.Duration(attempt))
		}
		results, err := rs.runPipeline(ctx, userID, answers, contentType, userAge)
		if err == nil {
			return results, nil
		}
		lastErr = err
		rs.log.Warn("Recommendation pipeline attempt failed", "attempt", attempt, "error", err)
	}
	return nil, &RetryExhaustedError{Attempts: MaxRetries + 1, Err: lastErr}
}

func (rs *recommendationService) runPipeline(ctx context.Context, userID uuid.UUID, answers types.AnswerSet, contentType string, userAge int) ([]RecommendationResult, error) {
	candidates, err := rs.generator.GenerateRecommendations(ctx, answers, contentType, userAge)
	if err != nil {
		return nil, err
	}

	enriched := rs.enrichAll(ctx, candidates)

	results := make([]RecommendationResult, len(enriched))
	for i, ec := range enriched {
		stored := rs.persistOne(ctx, userID, contentType, ec)
		results[i] = RecommendationResult{
			Recommendation: ec,
			Stored:         stored,
			Persisted:      stored != nil,
		}
	}
	return results, nil
}

// enrichAll looks candidates up concurrently and reassembles positionally.
// A candidate's lookup failure degrades that candidate only; siblings are
// untouched and nothing propagates.
func (rs *recommendationService) enrichAll(ctx context.Context, candidates []types.Candidate) []types.EnrichedCandidate {
	ctx, span := rs.tracer.Start(ctx, "recommendation.enrich")
	defer span.End()

	enriched := make([]types.EnrichedCandidate, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	for i, cand := range candidates {
		g.Go(func() error {
			enriched[i] = rs.enrichOne(ctx, cand)
			return nil
		})
	}
	_ = g.Wait()
	return enriched
}

func (rs *recommendationService) enrichOne(ctx context.Context, cand types.Candidate) types.EnrichedCandidate {
	ec := types.EnrichedCandidate{Candidate: cand}

	switch cand.Type {
	case types.ContentTypeBook:
		res := rs.books.Lookup(ctx, cand.Title, cand.Author)
		if res.Status == googlebooks.StatusOK {
			if res.Match.CoverURL != "" {
				ec.PosterURL = res.Match.CoverURL
			}
			if res.Match.Year != 0 {
				ec.Year = res.Match.Year
			}
			if res.Match.Rating != 0 {
				ec.Rating = res.Match.Rating
			}
		} else {
			rs.log.Debug("Book lookup degraded to placeholders", "title", cand.Title, "error", res.Err)
		}
		if ec.PosterURL == "" {
			ec.PosterURL = BookPlaceholderCover
		}
		if ec.Rating == 0 {
			ec.Rating = BookFallbackRating
		}
	default:
		res := rs.movies.Lookup(ctx, cand.Title)
		if res.Status == tmdb.StatusOK {
			if res.Match.PosterURL != "" {
				ec.PosterURL = res.Match.PosterURL
			}
			if res.Match.Year != 0 {
				ec.Year = res.Match.Year
			}
			if res.Match.Rating != 0 {
				ec.Rating = res.Match.Rating
			}
		} else {
			rs.log.Debug("Movie lookup degraded to placeholders", "title", cand.Title, "error", res.Err)
		}
		if ec.PosterURL == "" {
			ec.PosterURL = MoviePlaceholderPoster
		}
		if ec.Rating == 0 {
			ec.Rating = MovieFallbackRating
		}
	}

	if ec.Year == 0 {
		ec.Year = rs.now().Year()
	}
	return ec
}

// persistOne writes the enriched candidate under the requesting user.
// Returns nil on failure: a lost write degrades durability, never the
// user-visible result.
func (rs *recommendationService) persistOne(ctx context.Context, userID uuid.UUID, contentType string, ec types.EnrichedCandidate) *types.Recommendation {
	row := types.RecommendationFromEnriched(userID, contentType, ec)
	created, err := rs.recRepo.Create(ctx, nil, []*types.Recommendation{row})
	if err != nil {
		rs.log.Warn("Failed to persist recommendation", "title", ec.Title, "user_id", userID, "error", err)
		return nil
	}
	return created[0]
}

func (rs *recommendationService) History(ctx context.Context, userID uuid.UUID) ([]*types.Recommendation, error) {
	return rs.recRepo.GetByUserID(ctx, nil, userID)
}

func (rs *recommendationService) ToggleFavorite(ctx context.Context, userID, recID uuid.UUID) (*types.Recommendation, error) {
	rec, err := rs.recRepo.GetByID(ctx, nil, recID)
	if err != nil {
		return nil, ErrNotFound
	}
	if rec.UserID != userID {
		return nil, ErrForbidden
	}
	if err := rs.recRepo.SetFavorited(ctx, nil, recID, !rec.IsFavorited); err != nil {
		return nil, err
	}
	rec.IsFavorited = !rec.IsFavorited
	return rec, nil
}

func (rs *recommendationService) Delete(ctx context.Context, userID, recID uuid.UUID) error {
	rec, err := rs.recRepo.GetByID(ctx, nil, recID)
	if err != nil {
		return ErrNotFound
	}
	if rec.UserID != userID {
		return ErrForbidden
	}
	return rs.recRepo.Delete(ctx, nil, recID)
}
