package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationRepository on
// PostgreSQL. All statements go through the marker-checked SQL runner.
type GenerationRepositoryPG struct {
	db infra.SQLExecutor
}

func NewGenerationRepository(db infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{db: db}
}

func (r *GenerationRepositoryPG) Create(ctx context.Context, rec *domain.GenerationRecord) error {
	requestJSON, err := json.Marshal(rec.Request)
	if err != nil {
		return fmt.Errorf("repo: encode request: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QInsertGeneration,
		rec.ID,
		rec.UserID,
		string(rec.Kind),
		requestJSON,
	)
	return err
}

func (r *GenerationRepositoryPG) PatchStatus(ctx context.Context, id string, status domain.GenerationStatus, result *domain.GenerationResult) error {
	var resultJSON []byte
	if result != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("repo: encode result: %w", err)
		}
		resultJSON = encoded
	}
	_, err := r.db.Exec(ctx, sqlinline.QPatchGenerationStatus, id, string(status), resultJSON)
	return err
}

func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectGenerationByID, id)
	rec, err := scanGeneration(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByUser returns the user's generations ordered newest first.
func (r *GenerationRepositoryPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.GenerationRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, sqlinline.QListGenerationsByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Claim atomically moves the oldest queued generation to RUNNING and returns
// it. domain.ErrNotFound means the queue is empty.
func (r *GenerationRepositoryPG) Claim(ctx context.Context) (*domain.GenerationRecord, error) {
	row := r.db.QueryRow(ctx, sqlinline.QClaimGeneration)

	var rec domain.GenerationRecord
	var requestJSON []byte
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Kind,
		&rec.Status,
		&requestJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(requestJSON, &rec.Request); err != nil {
		return nil, fmt.Errorf("repo: decode request for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// RequeueStale flips RUNNING generations older than maxAge back to QUEUED so
// a crashed worker's claims are retried. Returns the requeued ids.
func (r *GenerationRepositoryPG) RequeueStale(ctx context.Context, maxAgeSeconds int) ([]string, error) {
	rows, err := r.db.Query(ctx, sqlinline.QRequeueStaleGenerations, maxAgeSeconds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.GenerationRecord, error) {
	var rec domain.GenerationRecord
	var requestJSON, resultJSON []byte
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Kind,
		&rec.Status,
		&requestJSON,
		&resultJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(requestJSON) > 0 {
		if err := json.Unmarshal(requestJSON, &rec.Request); err != nil {
			return nil, fmt.Errorf("repo: decode request for %s: %w", rec.ID, err)
		}
	}
	if len(resultJSON) > 0 {
		var result domain.GenerationResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("repo: decode result for %s: %w", rec.ID, err)
		}
		rec.Result = &result
	}
	return &rec, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
