package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/jmoiron/sqlx"
)

const ownershipQuery = `SELECT id, manager_id, creator_id, is_hidden FROM contractors WHERE id = ?`

type ownershipRow struct {
	ID        int64         `db:"id"`
	ManagerID sql.NullInt64 `db:"manager_id"`
	CreatorID sql.NullInt64 `db:"creator_id"`
	IsHidden  bool          `db:"is_hidden"`
}

// OwnerLookup reads contractor ownership straight from the table on every
// call.
type OwnerLookup struct {
	db *sqlx.DB
}

func NewOwnerLookup(db *sqlx.DB) *OwnerLookup {
	return &OwnerLookup{db: db}
}

func (l *OwnerLookup) Ownership(ctx context.Context, contractorID int64) (auth.Ownership, error) {
	var row ownershipRow
	if err := l.db.GetContext(ctx, &row, l.db.Rebind(ownershipQuery), contractorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Ownership{}, auth.ErrOwnershipNotFound
		}
		return auth.Ownership{}, err
	}
	return auth.Ownership{
		ContractorID: row.ID,
		ManagerID:    nullable(row.ManagerID),
		CreatorID:    nullable(row.CreatorID),
		Hidden:       row.IsHidden,
	}, nil
}

func nullable(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
