package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tuition/internal/models"
)

func (repo *Repository) AddCertificate(ctx context.Context, cert models.Certificate) (models.Certificate, error) {
	query := `
	INSERT INTO certificates (tutor_id, name, file_url)
	VALUES
		($1, $2, $3)
	RETURNING
		id, created_at
	`

	row := repo.db.QueryRowContext(ctx, query, cert.TutorId, cert.Name, cert.FileURL)
	err := row.Scan(&cert.Id, &cert.CreatedAt)
	if err != nil {
		return cert, fmt.Errorf("repository.Repository.AddCertificate: %w", err)
	}

	return cert, nil
}

func (repo *Repository) GetCertificatesByTutor(ctx context.Context, tutorId string) ([]models.Certificate, error) {
	query := `
	SELECT
		id, tutor_id, name, file_url, created_at
	FROM certificates
	WHERE tutor_id = $1
	ORDER BY created_at
	`

	rows, err := repo.db.QueryContext(ctx, query, tutorId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetCertificatesByTutor: %w", err)
	}
	defer rows.Close()

	var result []models.Certificate
	var cert models.Certificate
	for rows.Next() {
		err = rows.Scan(&cert.Id, &cert.TutorId, &cert.Name, &cert.FileURL, &cert.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetCertificatesByTutor: rows scan error: %w", err)
		}
		result = append(result, cert)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetCertificatesByTutor: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetCertificateByUUID(ctx context.Context, UUID string) (models.Certificate, error) {
	var cert models.Certificate
	query := `
	SELECT
		id, tutor_id, name, file_url, created_at
	FROM certificates
	WHERE id = $1
	LIMIT 1
	`

	row := repo.db.QueryRowContext(ctx, query, UUID)
	err := row.Scan(&cert.Id, &cert.TutorId, &cert.Name, &cert.FileURL, &cert.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cert, fmt.Errorf("repository.Repository.GetCertificateByUUID: no certificate found by UUID %s: %w", UUID, models.ErrNoCertificate)
	} else if err != nil {
		return cert, fmt.Errorf("repository.Repository.GetCertificateByUUID: %w", err)
	}

	return cert, nil
}

func (repo *Repository) DeleteCertificate(ctx context.Context, UUID string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM certificates WHERE id = $1", UUID)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteCertificate: %w", err)
	}
	return nil
}
