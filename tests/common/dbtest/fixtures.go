//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestUser(t *testing.T, db DBLike, email, role string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, "INSERT INTO users (id, email, role) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING",
		userID, email, role)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		err = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
		require.NoError(t, err)
	}

	return userID
}

func CreateTestShop(t *testing.T, db DBLike, ownerID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	shopID := uuid.New()
	_, err := db.Exec(context.Background(), "INSERT INTO shops (id, owner_id, name) VALUES ($1, $2, $3)", shopID, ownerID, name)
	require.NoError(t, err)
	return shopID
}

// ToolFixture holds tool prices in minor units.
type ToolFixture struct {
	Name         string
	PricePerHour int64
	PricePerDay  *int64
	PricePerWeek *int64
	Deposit      int64
	Quantity     int
	IsAvailable  bool
}

func DefaultTool() ToolFixture {
	return ToolFixture{
		Name:         "Cordless Drill",
		PricePerHour: 10000,
		Deposit:      50000,
		Quantity:     3,
		IsAvailable:  true,
	}
}

func CreateTestTool(t *testing.T, db DBLike, shopID uuid.UUID, f ToolFixture) uuid.UUID {
	t.Helper()

	toolID := uuid.New()
	_, err := db.Exec(context.Background(), `
		INSERT INTO tools (id, shop_id, name, price_per_hour, price_per_day, price_per_week,
		                   deposit_amount, quantity_total, quantity_available, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)`,
		toolID, shopID, f.Name, f.PricePerHour, f.PricePerDay, f.PricePerWeek, f.Deposit, f.Quantity, f.IsAvailable)
	require.NoError(t, err)
	return toolID
}

func ToolQuantityAvailable(t *testing.T, db DBLike, toolID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT quantity_available FROM tools WHERE id = $1", toolID).Scan(&n)
	require.NoError(t, err)
	return n
}

func BookingStatus(t *testing.T, db DBLike, bookingID uuid.UUID) (status, paymentStatus string) {
	t.Helper()

	err := db.QueryRow(context.Background(), "SELECT status, payment_status FROM bookings WHERE id = $1", bookingID).
		Scan(&status, &paymentStatus)
	require.NoError(t, err)
	return status, paymentStatus
}

func CountOutboxJobs(t *testing.T, db DBLike, topic string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM notification_jobs WHERE topic = $1", topic).Scan(&n)
	require.NoError(t, err)
	return n
}

func CountNotifications(t *testing.T, db DBLike, userID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM notifications WHERE user_id = $1", userID).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// ResetDB truncates every table except the migration bookkeeping.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
