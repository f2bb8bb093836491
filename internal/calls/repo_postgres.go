package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reservation-caller/internal/reservation"
	"reservation-caller/pkg/utils"
)

// PostgresRepo is the durable call store.
//
// Layout:
// - calls: one row per record; reservation and outcome are JSONB columns
//   updated last-writer-wins.
// - call_transcript: append-only rows ordered by a sequence column.
//
// The repo does not implement optimistic concurrency control; callers
// serialize writers per call id.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

// Migrate creates the schema when it does not exist yet.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			reservation JSONB NOT NULL,
			status TEXT NOT NULL,
			outcome JSONB,
			provider_call_sid TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS call_transcript (
			seq BIGSERIAL PRIMARY KEY,
			call_id TEXT NOT NULL REFERENCES calls(id),
			at TIMESTAMPTZ NOT NULL,
			speaker TEXT NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS call_transcript_call_idx ON call_transcript (call_id, seq)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("calls migrate: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepo) Create(ctx context.Context, res reservation.Request) (Record, error) {
	now := r.clock().UTC()
	id := res.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	res.RequestID = id

	resJSON, err := json.Marshal(res)
	if err != nil {
		return Record{}, err
	}

	err = utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calls (id, reservation, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			id, resJSON, StatusInit, now,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO call_transcript (call_id, at, speaker, text) VALUES ($1, $2, $3, $4)`,
			id, now, SpeakerSystem, "Call created",
		)
		return err
	})
	if err != nil {
		return Record{}, err
	}

	return Record{
		ID:          id,
		Reservation: res,
		Status:      StatusInit,
		Transcript:  []TranscriptEntry{{At: now, Speaker: SpeakerSystem, Text: "Call created"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Record, bool, error) {
	rec, err := r.scanCall(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT at, speaker, text FROM call_transcript WHERE call_id = $1 ORDER BY seq`, id)
	if err != nil {
		return Record{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var t TranscriptEntry
		if err := rows.Scan(&t.At, &t.Speaker, &t.Text); err != nil {
			return Record{}, false, err
		}
		rec.Transcript = append(rec.Transcript, t)
	}
	if err := rows.Err(); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation, status, outcome, provider_call_sid, created_at, updated_at
		 FROM calls ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanCallRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE calls SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, r.clock().UTC())
	return err
}

func (r *PostgresRepo) AppendTranscript(ctx context.Context, id string, speaker Speaker, text string) error {
	now := r.clock().UTC()
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE calls SET updated_at = $2 WHERE id = $1`, id, now)
		if err != nil {
			return err
		}
		// Unknown ids are silently absorbed, matching the repo contract.
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO call_transcript (call_id, at, speaker, text) VALUES ($1, $2, $3, $4)`,
			id, now, speaker, text)
		return err
	})
}

func (r *PostgresRepo) SetOutcome(ctx context.Context, id string, outcome Outcome) error {
	o, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE calls SET outcome = $2, updated_at = $3 WHERE id = $1`,
		id, o, r.clock().UTC())
	return err
}

func (r *PostgresRepo) UpdateReservation(ctx context.Context, id string, patch reservation.Patch) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var raw []byte
		err := tx.QueryRowContext(ctx,
			`SELECT reservation FROM calls WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		var res reservation.Request
		if err := json.Unmarshal(raw, &res); err != nil {
			return err
		}
		merged, err := json.Marshal(patch.Apply(res))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE calls SET reservation = $2, updated_at = $3 WHERE id = $1`,
			id, merged, r.clock().UTC())
		return err
	})
}

func (r *PostgresRepo) AttachProviderSID(ctx context.Context, id, sid string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE calls SET provider_call_sid = $2, updated_at = $3 WHERE id = $1`,
		id, sid, r.clock().UTC())
	return err
}

func (r *PostgresRepo) scanCall(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reservation, status, outcome, provider_call_sid, created_at, updated_at
		 FROM calls WHERE id = $1`, id)
	return scanCallRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallRow(row rowScanner) (Record, error) {
	var rec Record
	var resJSON []byte
	var outcomeJSON []byte

	if err := row.Scan(&rec.ID, &resJSON, &rec.Status, &outcomeJSON, &rec.ProviderCallSID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(resJSON, &rec.Reservation); err != nil {
		return Record{}, err
	}
	if len(outcomeJSON) > 0 {
		var o Outcome
		if err := json.Unmarshal(outcomeJSON, &o); err != nil {
			return Record{}, err
		}
		rec.Outcome = &o
	}
	return rec, nil
}
