package repository

import (
	"context"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"

	"github.com/google/uuid"
)

const (
	reserveToolQuery = `UPDATE tools
SET quantity_available = quantity_available - $2, updated_at = now()
WHERE id = $1 AND is_available AND quantity_available >= $2`

	releaseToolQuery = `UPDATE tools
SET quantity_available = LEAST(quantity_available + $2, quantity_total), updated_at = now()
WHERE id = $1`
)

type ToolRepository struct{}

func NewToolRepository() *ToolRepository {
	return &ToolRepository{}
}

// Reserve decrements stock in one guarded statement. No matching row means the
// tool is unavailable or short of stock.
func (r *ToolRepository) Reserve(ctx context.Context, tx db.DBTX, toolID uuid.UUID, quantity int) error {
	tag, err := tx.Exec(ctx, reserveToolQuery, toolID, quantity)
	if err != nil {
		return infra.WrapRepoErr("failed to reserve tool quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("insufficient tool quantity", nil, infra.KindConflict)
	}
	return nil
}

func (r *ToolRepository) Release(ctx context.Context, tx db.DBTX, toolID uuid.UUID, quantity int) error {
	tag, err := tx.Exec(ctx, releaseToolQuery, toolID, quantity)
	if err != nil {
		return infra.WrapRepoErr("failed to release tool quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("tool not found", nil, infra.KindNotFound)
	}
	return nil
}
