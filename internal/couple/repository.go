package couple

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Member is one account inside a couple.
type Member struct {
	ID          uuid.UUID
	DisplayName string
}

// Directory answers membership questions about couples.
type Directory interface {
	Members(ctx context.Context, coupleID uuid.UUID) ([]Member, error)
}

// PGDirectory reads couple membership from Postgres.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewPGDirectory creates a directory over the given pool.
func NewPGDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

// Members lists the couple's members in join order.
func (d *PGDirectory) Members(ctx context.Context, coupleID uuid.UUID) ([]Member, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT user_id, display_name FROM couple_members WHERE couple_id = $1 ORDER BY joined_at`,
		coupleID)
	if err != nil {
		return nil, fmt.Errorf("list couple members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scan couple member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Connected reports whether the couple has at least two members.
func Connected(members []Member) bool {
	return len(members) >= 2
}
