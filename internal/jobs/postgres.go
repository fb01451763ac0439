package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/snipe/internal/db"
)

// PostgresStore reads jobs from a Postgres mirror of the backend's job table.
type PostgresStore struct{ db *db.DB }

func NewPostgresStore(d *db.DB) *PostgresStore { return &PostgresStore{db: d} }

const jobColumns = `id,user_id,venue_id,date,hour,minute,party_size,status,note,summary,target_timestamp,created_at`

// mutableColumns are overwritten when a job is mirrored again; update_snipe
// may have changed any of them.
var mutableColumns = []string{
	"user_id", "venue_id", "date", "hour", "minute", "party_size",
	"status", "note", "summary", "target_timestamp",
}

var upsertSQL = buildUpsert()

func buildUpsert() string {
	n := len(strings.Split(jobColumns, ","))
	params := make([]string, n)
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	set := make([]string, 0, len(mutableColumns)+1)
	for _, c := range mutableColumns {
		set = append(set, c+"=EXCLUDED."+c)
	}
	set = append(set, "updated_at=now()")
	return "INSERT INTO reservation_jobs(" + jobColumns + ")\nVALUES (" + strings.Join(params, ",") + ")\n" +
		"ON CONFLICT (id) DO UPDATE SET\n  " + strings.Join(set, ",\n  ")
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Job, error) {
	return db.Select(ctx, s.db, scanJob, `
SELECT `+jobColumns+`
FROM reservation_jobs
WHERE user_id=$1
ORDER BY target_timestamp DESC`, userID)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Job, error) {
	j, err := db.One(ctx, s.db, scanJob, `SELECT `+jobColumns+` FROM reservation_jobs WHERE id=$1`, id)
	if errors.Is(err, db.ErrNotFound) {
		return Job{}, ErrNotFound
	}
	return j, err
}

// Upsert writes a job into the mirror, replacing any row with the same id.
func (s *PostgresStore) Upsert(ctx context.Context, j Job) error {
	return s.db.Exec(ctx, upsertSQL, upsertArgs(j, time.Now().UTC())...)
}

// upsertArgs lines up with jobColumns.
func upsertArgs(j Job, now time.Time) []any {
	var target *time.Time
	if !j.TargetTimestamp.IsZero() {
		target = &j.TargetTimestamp
	}
	created := j.CreatedAt
	if created.IsZero() {
		created = now
	}
	return []any{j.ID, j.UserID, j.VenueID, j.Date, j.Hour, j.Minute, j.PartySize, j.Status, j.Note, j.Summary, target, created}
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanJob(row pgx.CollectableRow) (Job, error) {
	var j Job
	var target *time.Time
	if err := row.Scan(
		&j.ID, &j.UserID, &j.VenueID, &j.Date, &j.Hour, &j.Minute, &j.PartySize, &j.Status,
		&j.Note, &j.Summary, &target, &j.CreatedAt,
	); err != nil {
		return Job{}, err
	}
	if target != nil {
		j.TargetTimestamp = *target
	}
	return j, nil
}
