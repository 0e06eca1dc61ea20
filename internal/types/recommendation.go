package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recommendation is the persisted form of an EnrichedCandidate, owned by the
// requesting user. The pipeline never mutates a row after insert; only the
// owner toggles is_favorited or deletes it.
type Recommendation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Type        string    `gorm:"not null;column:type" json:"type"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Explanation string    `gorm:"column:explanation" json:"explanation"`
	PosterURL   string    `gorm:"column:poster_url" json:"poster_url"`
	Genre       string    `gorm:"column:genre" json:"genre"`
	Rating      float64   `gorm:"column:rating" json:"rating"`
	IsFavorited bool      `gorm:"not null;default:false;column:is_favorited" json:"is_favorited"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	Director    string    `gorm:"column:director" json:"director"`
	Author      string    `gorm:"column:author" json:"author"`
	Year        int       `gorm:"column:year" json:"year"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Recommendation) TableName() string {
	return "recommendation"
}

// RecommendationFromEnriched maps an enriched candidate onto a row for the
// given owner. Genres are comma-joined for storage.
func RecommendationFromEnriched(userID uuid.UUID, contentType string, ec EnrichedCandidate) *Recommendation {
	return &Recommendation{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        ec.Type,
		Title:       ec.Title,
		Description: ec.Description,
		Explanation: ec.Explanation,
		PosterURL:   ec.PosterURL,
		Genre:       strings.Join(ec.Genres, ","),
		Rating:      ec.Rating,
		IsFavorited: false,
		ContentType: contentType,
		Director:    ec.Director,
		Author:      ec.Author,
		Year:        ec.Year,
	}
}
