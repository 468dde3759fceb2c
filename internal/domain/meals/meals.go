package meals

import (
	"context"
	"time"

	"mealvision-server/internal/domain/nutrition"
)

// Record is one archived analysis: the validated result plus the reference
// to the photo it was derived from. Records belong to exactly one owner.
type Record struct {
	ID          string                    `json:"id"`
	OwnerID     string                    `json:"-"`
	FileName    string                    `json:"fileName"`
	ArtifactURL string                    `json:"imageUrl"`
	ArtifactKey string                    `json:"-"`
	Analysis    *nutrition.AnalysisResult `json:"analysis"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// DefaultHistoryLimit bounds unqualified history queries.
const DefaultHistoryLimit = 50

// Repository persists analysis records. Implementations scope every read and
// delete by owner so one user can never touch another user's history.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*Record, error)
	FindByID(ctx context.Context, ownerID, id string) (*Record, error)
	Delete(ctx context.Context, ownerID, id string) error
}
