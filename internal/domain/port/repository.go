package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/framepulse/frametime-service/internal/domain/entity"
)

type AnalysisRepository interface {
	Create(ctx context.Context, a *entity.Analysis) error
	Update(ctx context.Context, a *entity.Analysis) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Analysis, error)
}
