package readstore

import (
	"context"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/pkg/pgconv"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getToolSnapshotQuery = `SELECT t.id, t.shop_id, s.owner_id, t.name,
	t.price_per_hour, t.price_per_day, t.price_per_week, t.deposit_amount,
	t.quantity_total, t.quantity_available, t.is_available
FROM tools t
JOIN shops s ON s.id = t.shop_id
WHERE t.id = $1`

type ToolReadStore struct {
	db db.DBTX
}

func NewToolReadStore(db db.DBTX) *ToolReadStore {
	return &ToolReadStore{db: db}
}

func (r *ToolReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.ToolSnapshot, error) {
	var (
		t                    shared.ToolSnapshot
		perDay, perWeek      pgtype.Int8
		quantityTotal, avail int32
	)
	err := r.db.QueryRow(ctx, getToolSnapshotQuery, id).Scan(
		&t.ID, &t.ShopID, &t.OwnerID, &t.Name,
		&t.PricePerHour, &perDay, &perWeek, &t.DepositAmount,
		&quantityTotal, &avail, &t.IsAvailable,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("tool not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find tool by ID", err)
	}

	t.PricePerDay = pgconv.Int64PtrFromPgtype(perDay)
	t.PricePerWeek = pgconv.Int64PtrFromPgtype(perWeek)
	t.QuantityTotal = int(quantityTotal)
	t.QuantityAvailable = int(avail)
	return &t, nil
}
