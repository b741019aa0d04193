package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tuition/internal/models"

	"github.com/lib/pq"
)

func (repo *Repository) prepRequestsQuery(limit, offset int, requestId, parentId string, statuses []models.RequestStatus) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id,
		parent_id,
		student_name,
		student_level,
		subjects,
		address,
		postal_code,
		test_booked,
		test_scheduled_at,
		test_completed,
		status,
		created_at,
		updated_at
	FROM requests
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

	if len(requestId) > 0 {
		conditions = append(conditions, "id = $$")
		queryParams = append(queryParams, requestId)
	}

	if len(parentId) > 0 {
		conditions = append(conditions, "parent_id = $$")
		queryParams = append(queryParams, parentId)
	}

	if len(statuses) > 0 {
		conditions = append(conditions, "status = any($$::request_status[])")
		queryParams = append(queryParams, sliceToSQLList(statuses))
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

func scanRequest(row rowScanner) (models.Request, error) {
	var request models.Request
	var scheduledAt sql.NullTime

	err := row.Scan(&request.Id, &request.ParentId, &request.StudentName, &request.StudentLevel,
		pq.Array(&request.Subjects), &request.Address, &request.PostalCode,
		&request.TestBooked, &scheduledAt, &request.TestCompleted,
		&request.Status, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return request, err
	}

	if scheduledAt.Valid {
		t := scheduledAt.Time
		request.TestScheduledAt = &t
	}

	return request, nil
}

func (repo *Repository) GetRequests(ctx context.Context, limit, offset int, requestId, parentId string, statuses []models.RequestStatus) ([]models.Request, error) {
	query, queryParams := repo.prepRequestsQuery(limit, offset, requestId, parentId, statuses)

	rows, err := repo.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetRequests: %w", err)
	}
	defer rows.Close()

	var result []models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetRequests: row scan failed: %w", err)
		}
		result = append(result, request)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetRequests: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetRequestByUUID(ctx context.Context, UUID string) (models.Request, error) {
	query, queryParams := repo.prepRequestsQuery(1, 0, UUID, "", nil)

	row := repo.db.QueryRowContext(ctx, query, queryParams...)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return request, fmt.Errorf("repository.Repository.GetRequestByUUID: no request found by UUID %s: %w", UUID, models.ErrNoRequest)
	} else if err != nil {
		return request, fmt.Errorf("repository.Repository.GetRequestByUUID: %w", err)
	}

	return request, nil
}

// AddRequest inserts a new request. The status is derived from the test
// flag atomically with creation: a request booked with a diagnostic test
// starts in test_booked, every other request starts in submitted.
func (repo *Repository) AddRequest(ctx context.Context, r models.Request) (models.Request, error) {
	result := r

	result.Status = models.RequestSubmitted
	if r.TestBooked {
		result.Status = models.RequestTestBooked
	}

	query := `
	INSERT INTO requests
		(parent_id, student_name, student_level, subjects, address, postal_code, test_booked, test_scheduled_at, status)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING
		id, created_at, updated_at
	`

	var scheduledAt interface{}
	if r.TestScheduledAt != nil {
		scheduledAt = *r.TestScheduledAt
	}

	row := repo.db.QueryRowContext(ctx, query, r.ParentId, r.StudentName, r.StudentLevel,
		pq.Array(r.Subjects), r.Address, r.PostalCode, r.TestBooked, scheduledAt, result.Status)
	err := row.Scan(&result.Id, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddRequest: %w", err)
	}

	return result, nil
}

// MarkTestComplete flips the diagnostic-test flag. It never touches status:
// a booked-but-uncompleted test only gates what callers display, matching
// stays allowed either way.
func (repo *Repository) MarkTestComplete(ctx context.Context, requestId string) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository.Repository.MarkTestComplete: failed to start transaction: %w", err)
	}

	var booked, completed bool
	row := tx.QueryRowContext(ctx, "SELECT test_booked, test_completed FROM requests WHERE id = $1 FOR UPDATE", requestId)
	err = row.Scan(&booked, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return wrapRollbackErr(tx, models.ErrNoRequest)
	} else if err != nil {
		return fmt.Errorf("repository.Repository.MarkTestComplete: %w", wrapRollbackErr(tx, err))
	}

	if !booked {
		return wrapRollbackErr(tx, models.ErrNoTestBooked)
	}
	if completed {
		return wrapRollbackErr(tx, models.ErrTestCompleted)
	}

	_, err = tx.ExecContext(ctx, "UPDATE requests SET test_completed = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1", requestId)
	if err != nil {
		return fmt.Errorf("repository.Repository.MarkTestComplete: %w", wrapRollbackErr(tx, err))
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("repository.Repository.MarkTestComplete: failed to commit transaction: %w", err)
	}

	return nil
}
