package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tuition/internal/models"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// CreateMatch is the approval primitive. It re-reads the request row under
// a FOR UPDATE lock, re-checks that the request is still biddable, inserts
// the match and advances the request to matched, all in one transaction.
// If two approvals race, one commits and the other sees either the locked
// row's new status or the unique index on matches.request_id; both paths
// surface ErrAlreadyMatched.
func (repo *Repository) CreateMatch(ctx context.Context, requestId, tutorId string) (models.Match, error) {
	var match models.Match

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return match, fmt.Errorf("repository.Repository.CreateMatch: failed to start transaction: %w", err)
	}

	var status models.RequestStatus
	row := tx.QueryRowContext(ctx, "SELECT status FROM requests WHERE id = $1 FOR UPDATE", requestId)
	err = row.Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return match, wrapRollbackErr(tx, models.ErrNoRequest)
	} else if err != nil {
		return match, fmt.Errorf("repository.Repository.CreateMatch: %w", wrapRollbackErr(tx, err))
	}

	if !models.BiddableRequestStatus(status) {
		return match, wrapRollbackErr(tx, models.ErrAlreadyMatched)
	}

	query := `
	INSERT INTO matches (request_id, tutor_id)
	VALUES
		($1, $2)
	RETURNING
		id, created_at, updated_at
	`

	match.RequestId = requestId
	match.TutorId = tutorId

	row = tx.QueryRowContext(ctx, query, requestId, tutorId)
	err = row.Scan(&match.Id, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return match, wrapRollbackErr(tx, models.ErrAlreadyMatched)
		}
		return match, fmt.Errorf("repository.Repository.CreateMatch: %w", wrapRollbackErr(tx, err))
	}

	_, err = tx.ExecContext(ctx, "UPDATE requests SET status = 'matched', updated_at = CURRENT_TIMESTAMP WHERE id = $1", requestId)
	if err != nil {
		return match, fmt.Errorf("repository.Repository.CreateMatch: %w", wrapRollbackErr(tx, err))
	}

	err = tx.Commit()
	if err != nil {
		return match, fmt.Errorf("repository.Repository.CreateMatch: failed to commit transaction: %w", err)
	}

	return match, nil
}

const matchColumns = `
	id, request_id, tutor_id, invoice_generated, invoice_url, created_at, updated_at
`

func scanMatch(row rowScanner) (models.Match, error) {
	var match models.Match
	var invoiceURL sql.NullString

	err := row.Scan(&match.Id, &match.RequestId, &match.TutorId, &match.InvoiceGenerated, &invoiceURL, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return match, err
	}

	match.InvoiceURL = invoiceURL.String
	return match, nil
}

func (repo *Repository) GetMatchByUUID(ctx context.Context, UUID string) (models.Match, error) {
	query := `
	SELECT ` + matchColumns + `
	FROM matches
	WHERE id = $1
	LIMIT 1
	`

	row := repo.db.QueryRowContext(ctx, query, UUID)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match, fmt.Errorf("repository.Repository.GetMatchByUUID: no match found by UUID %s: %w", UUID, models.ErrNoMatch)
	} else if err != nil {
		return match, fmt.Errorf("repository.Repository.GetMatchByUUID: %w", err)
	}

	return match, nil
}

func (repo *Repository) GetMatchByRequest(ctx context.Context, requestId string) (models.Match, error) {
	query := `
	SELECT ` + matchColumns + `
	FROM matches
	WHERE request_id = $1
	LIMIT 1
	`

	row := repo.db.QueryRowContext(ctx, query, requestId)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match, fmt.Errorf("repository.Repository.GetMatchByRequest: no match found for request %s: %w", requestId, models.ErrNoMatch)
	} else if err != nil {
		return match, fmt.Errorf("repository.Repository.GetMatchByRequest: %w", err)
	}

	return match, nil
}

// RecordInvoice records a rendered invoice's location on the match and
// advances the owning request to invoiced, in one transaction. The match
// row is locked first: when the invoice was already recorded and force is
// false, the stored location wins and the supplied one is discarded, so
// concurrent duplicate calls record exactly one document.
func (repo *Repository) RecordInvoice(ctx context.Context, matchId, invoiceURL string, force bool) (string, bool, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("repository.Repository.RecordInvoice: failed to start transaction: %w", err)
	}

	var generated bool
	var existing sql.NullString
	var requestId string
	row := tx.QueryRowContext(ctx, "SELECT invoice_generated, invoice_url, request_id FROM matches WHERE id = $1 FOR UPDATE", matchId)
	err = row.Scan(&generated, &existing, &requestId)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, wrapRollbackErr(tx, models.ErrNoMatch)
	} else if err != nil {
		return "", false, fmt.Errorf("repository.Repository.RecordInvoice: %w", wrapRollbackErr(tx, err))
	}

	if generated && !force {
		err = tx.Commit()
		if err != nil {
			return "", false, fmt.Errorf("repository.Repository.RecordInvoice: failed to commit transaction: %w", err)
		}
		return existing.String, false, nil
	}

	_, err = tx.ExecContext(ctx, "UPDATE matches SET invoice_generated = true, invoice_url = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2", invoiceURL, matchId)
	if err != nil {
		return "", false, fmt.Errorf("repository.Repository.RecordInvoice: %w", wrapRollbackErr(tx, err))
	}

	_, err = tx.ExecContext(ctx, "UPDATE requests SET status = 'invoiced', updated_at = CURRENT_TIMESTAMP WHERE id = $1", requestId)
	if err != nil {
		return "", false, fmt.Errorf("repository.Repository.RecordInvoice: %w", wrapRollbackErr(tx, err))
	}

	err = tx.Commit()
	if err != nil {
		return "", false, fmt.Errorf("repository.Repository.RecordInvoice: failed to commit transaction: %w", err)
	}

	return invoiceURL, true, nil
}
