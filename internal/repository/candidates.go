package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/entity"
	"github.com/joseph-ayodele/kyc-extractor/internal/metrics"
)

const (
	CandidatesTable = "candidates"

	colID        = "id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
)

// Outcome is what an upsert did.
type Outcome string

const (
	Inserted Outcome = "inserted"
	Updated  Outcome = "updated"
)

var candidateColumns = []string{
	colID,
	constants.ColName,
	constants.ColGender,
	constants.ColDateOfBirth,
	constants.ColFathersName,
	constants.ColAadharNo,
	constants.ColPanNo,
	constants.ColStreetAddress,
	colCreatedAt,
	colUpdatedAt,
}

type CandidateRepository interface {
	// UpsertByKey updates the row whose key column equals fields[key], or inserts one.
	UpsertByKey(ctx context.Context, table, key string, fields map[string]any) (Outcome, error)
	UpsertAadhaar(ctx context.Context, d entity.AadhaarDetails) (Outcome, error)
	UpsertPan(ctx context.Context, d entity.PanDetails) (Outcome, error)
	GetByAadhaar(ctx context.Context, aadharNo string) (*entity.Candidate, error)
	GetByPan(ctx context.Context, panNo string) (*entity.Candidate, error)
	List(ctx context.Context) ([]*entity.Candidate, error)
}

type candidateRepository struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

func NewCandidateRepository(db *DB, logger *slog.Logger) CandidateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &candidateRepository{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (r *candidateRepository) UpsertAadhaar(ctx context.Context, d entity.AadhaarDetails) (Outcome, error) {
	if d.AadharNo == "" {
		return "", common.NewInputError("aadhar_no is required")
	}
	return r.UpsertByKey(ctx, CandidatesTable, constants.ColAadharNo, map[string]any{
		constants.ColName:          d.Name,
		constants.ColGender:        d.Gender,
		constants.ColDateOfBirth:   d.DateOfBirth,
		constants.ColFathersName:   d.FathersName,
		constants.ColAadharNo:      d.AadharNo,
		constants.ColStreetAddress: d.StreetAddress,
	})
}

func (r *candidateRepository) UpsertPan(ctx context.Context, d entity.PanDetails) (Outcome, error) {
	if d.PanNo == "" {
		return "", common.NewInputError("pan_no is required")
	}
	return r.UpsertByKey(ctx, CandidatesTable, constants.ColPanNo, map[string]any{
		constants.ColName:        d.Name,
		constants.ColFathersName: d.FathersName,
		constants.ColDateOfBirth: d.DateOfBirth,
		constants.ColPanNo:       d.PanNo,
	})
}

// UpsertByKey runs the existence check and the write in one transaction. The unique
// constraint on the key column settles concurrent inserts of the same key.
func (r *candidateRepository) UpsertByKey(ctx context.Context, table, key string, fields map[string]any) (Outcome, error) {
	keyValue, ok := fields[key]
	if !ok {
		return "", common.NewInputError(fmt.Sprintf("%s is required", key))
	}

	tx, err := r.db.Driver.Tx(ctx)
	if err != nil {
		return "", r.fail(key, "begin transaction", err)
	}

	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Where(entsql.EQ(key, keyValue)).
		Query()
	var rows entsql.Rows
	if err := tx.Query(ctx, query, args, &rows); err != nil {
		_ = tx.Rollback()
		return "", r.fail(key, "check existing record", err)
	}
	n, err := scanCount(&rows)
	if err != nil {
		_ = tx.Rollback()
		return "", r.fail(key, "check existing record", err)
	}

	now := r.now()
	cols := sortedColumns(fields)
	outcome := Inserted
	if n > 0 {
		outcome = Updated
		upd := b.Update(table).Set(colUpdatedAt, now)
		for _, c := range cols {
			if c != key {
				upd.Set(c, fields[c])
			}
		}
		query, args = upd.Where(entsql.EQ(key, keyValue)).Query()
	} else {
		values := make([]any, 0, len(cols)+2)
		for _, c := range cols {
			values = append(values, fields[c])
		}
		values = append(values, now, now)
		query, args = b.Insert(table).
			Columns(append(cols, colCreatedAt, colUpdatedAt)...).
			Values(values...).
			Query()
	}
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		_ = tx.Rollback()
		return "", r.fail(key, "write record", err)
	}
	if err := tx.Commit(); err != nil {
		return "", r.fail(key, "commit", err)
	}

	metrics.CandidateUpserts.WithLabelValues(key, string(outcome)).Inc()
	r.logger.Info("repository.upsert.ok", "table", table, "key", key, "outcome", outcome)
	return outcome, nil
}

func (r *candidateRepository) GetByAadhaar(ctx context.Context, aadharNo string) (*entity.Candidate, error) {
	return r.getBy(ctx, constants.ColAadharNo, aadharNo)
}

func (r *candidateRepository) GetByPan(ctx context.Context, panNo string) (*entity.Candidate, error) {
	return r.getBy(ctx, constants.ColPanNo, panNo)
}

func (r *candidateRepository) getBy(ctx context.Context, key, value string) (*entity.Candidate, error) {
	query, args := entsql.Dialect(r.db.Dialect()).
		Select(candidateColumns...).
		From(entsql.Table(CandidatesTable)).
		Where(entsql.EQ(key, value)).
		Query()
	out, err := r.query(ctx, query, args)
	if err != nil {
		return nil, r.fail(key, "get candidate", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("candidate %s=%s: %w", key, value, common.ErrNotFound)
	}
	return out[0], nil
}

// List returns every candidate, oldest first.
func (r *candidateRepository) List(ctx context.Context) ([]*entity.Candidate, error) {
	query, args := entsql.Dialect(r.db.Dialect()).
		Select(candidateColumns...).
		From(entsql.Table(CandidatesTable)).
		OrderBy(colID).
		Query()
	out, err := r.query(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to list candidates", "error", err)
		return nil, common.NewPersistenceError("list candidates", err)
	}
	return out, nil
}

func (r *candidateRepository) query(ctx context.Context, query string, args []any) ([]*entity.Candidate, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Candidate
	for rows.Next() {
		c := &entity.Candidate{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Gender, &c.DateOfBirth, &c.FathersName,
			&c.AadharNo, &c.PanNo, &c.StreetAddress, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *candidateRepository) fail(key, op string, err error) error {
	metrics.CandidateUpserts.WithLabelValues(key, "error").Inc()
	r.logger.Error("repository.candidate.failed", "key", key, "op", op, "error", err)
	return common.NewPersistenceError(op, err)
}

func scanCount(rows *entsql.Rows) (int, error) {
	defer rows.Close()
	var n int
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("count returned no rows")
	}
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, rows.Err()
}

func sortedColumns(fields map[string]any) []string {
	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
