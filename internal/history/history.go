package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordAnswer is one member's archived answer, denormalized with the
// display name current at archive time.
type RecordAnswer struct {
	Option  string `json:"option"`
	Comment string `json:"comment"`
	Name    string `json:"name"`
}

// Record is one completed balance question for a couple. Created exactly
// once, when the second member's answer is first observed; never mutated.
type Record struct {
	ID         uuid.UUID
	CoupleID   uuid.UUID
	QuestionID string
	Category   string
	OptionA    string
	OptionB    string
	Date       string
	Answers    map[string]RecordAnswer
	IsMatch    bool
	CreatedAt  time.Time
}

// Store is the append-only history log. Append is idempotent on the
// natural key (couple_id, question_id): a racing duplicate reports
// created=false instead of a second row.
type Store interface {
	Append(ctx context.Context, rec *Record) (created bool, err error)
	List(ctx context.Context, coupleID uuid.UUID) ([]Record, error)
	Delete(ctx context.Context, coupleID, recordID uuid.UUID) error
}
