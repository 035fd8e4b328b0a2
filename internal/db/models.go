package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB represents a PostgreSQL jsonb column.
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface.
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
	return json.Unmarshal(bytes, j)
}

// TripRecord is one completed planning request stored for history. The full
// composite plan is kept as jsonb; the scalar columns exist for listing and
// filtering without unpacking the plan.
type TripRecord struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	Destination  string          `db:"destination" json:"destination"`
	OriginCity   string          `db:"origin_city" json:"origin_city"`
	Days         int             `db:"days" json:"days"`
	Month        string          `db:"month" json:"month"`
	BudgetTotal  float64         `db:"budget_total" json:"budget_total"`
	WithinBudget bool            `db:"within_budget" json:"within_budget"`
	Plan         json.RawMessage `db:"plan" json:"plan"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// FeedbackRecord is a user's rating of a stored trip plan.
type FeedbackRecord struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	TripID    string    `db:"trip_id" json:"trip_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
