package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tuition/internal/models"
)

// AddBid inserts a bid after re-checking the request's status inside the
// same transaction. The request row is locked FOR SHARE, so concurrent bids
// on one request interleave freely while an in-flight approval blocks them.
func (repo *Repository) AddBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: failed to start transaction: %w", err)
	}

	var status models.RequestStatus
	row := tx.QueryRowContext(ctx, "SELECT status FROM requests WHERE id = $1 FOR SHARE", bid.RequestId)
	err = row.Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return bid, wrapRollbackErr(tx, models.ErrNoRequest)
	} else if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: %w", wrapRollbackErr(tx, err))
	}

	if !models.BiddableRequestStatus(status) {
		return bid, wrapRollbackErr(tx, models.ErrRequestNotBiddable)
	}

	query := `
	INSERT INTO bids (request_id, tutor_id, message)
	VALUES
		($1, $2, $3)
	RETURNING
		id, created_at
	`

	row = tx.QueryRowContext(ctx, query, bid.RequestId, bid.TutorId, bid.Message)
	err = row.Scan(&bid.Id, &bid.CreatedAt)
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: scan failed: %w", wrapRollbackErr(tx, err))
	}

	err = tx.Commit()
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: failed to commit transaction: %w", err)
	}

	return bid, nil
}

func (repo *Repository) prepBidsQuery(limit, offset int, tutorId, requestId, UUID string) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id, request_id, tutor_id, message, created_at
	FROM bids
	$conditions$
	ORDER BY created_at
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 5)
	conditions := make([]string, 0, 3)

	if limit <= 0 {
		queryParams = append(queryParams, nil)
	} else {
		queryParams = append(queryParams, limit)
	}
	queryParams = append(queryParams, offset)

	if len(tutorId) > 0 {
		queryParams = append(queryParams, tutorId)
		conditions = append(conditions, "tutor_id = $$")
	}
	if len(requestId) > 0 {
		queryParams = append(queryParams, requestId)
		conditions = append(conditions, "request_id = $$")
	}
	if len(UUID) > 0 {
		queryParams = append(queryParams, UUID)
		conditions = append(conditions, "id = $$")
	}

	condStr := ""
	if len(conditions) > 0 {
		for i := 0; i < len(conditions); i++ {
			conditions[i] = strings.Replace(conditions[i], "$$", "$"+strconv.Itoa(i+3), -1)
		}
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)

	return query, queryParams
}

func (repo *Repository) GetBids(ctx context.Context, limit, offset int, tutorId, requestId string) ([]models.Bid, error) {
	query, params := repo.prepBidsQuery(limit, offset, tutorId, requestId, "")

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetBids: %w", err)
	}
	defer rows.Close()

	var result []models.Bid
	var bid models.Bid
	for rows.Next() {
		err = rows.Scan(&bid.Id, &bid.RequestId, &bid.TutorId, &bid.Message, &bid.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetBids: rows scan error: %w", err)
		}
		result = append(result, bid)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetBids: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetBidByUUID(ctx context.Context, UUID string) (models.Bid, error) {
	var bid models.Bid
	query, params := repo.prepBidsQuery(1, 0, "", "", UUID)
	row := repo.db.QueryRowContext(ctx, query, params...)
	err := row.Scan(&bid.Id, &bid.RequestId, &bid.TutorId, &bid.Message, &bid.CreatedAt)
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.GetBidByUUID: %w", err)
	}
	return bid, nil
}
