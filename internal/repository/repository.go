package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tuition/internal/config"
	"tuition/internal/models"

	postgres "tuition/internal/repository/db"
)

type Repository struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewRepository(db *sql.DB, cfg *config.PostgresConfig) (*Repository, error) {
	var err error

	repo := &Repository{
		db:  db,
		cfg: cfg,
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(repo.cfg)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}

	if repo.cfg.AutoMigrateUp == "true" {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.Migrate: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.Migrate: %w", err)
	}
	return nil
}

//// Users

const userColumns = `
	id,
	username,
	role,
	full_name,
	hourly_rate,
	questionnaire,
	created_at,
	updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	var rate sql.NullFloat64
	var questionnaire []byte

	err := row.Scan(&user.Id, &user.Username, &user.Role, &user.FullName, &rate, &questionnaire, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return user, err
	}

	if rate.Valid {
		user.HourlyRate = rate.Float64
	}
	if len(questionnaire) > 0 {
		err = json.Unmarshal(questionnaire, &user.Questionnaire)
		if err != nil {
			return user, fmt.Errorf("questionnaire unmarshal failed: %w", err)
		}
	}

	return user, nil
}

func (repo *Repository) UserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	query := `
	SELECT ` + userColumns + `
	FROM users
	WHERE username = $1
	LIMIT 1
	`
	row := repo.db.QueryRowContext(ctx, query, username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return user, false, nil
	} else if err != nil {
		return user, false, fmt.Errorf("repository.Repository.UserByUsername: %w", err)
	}

	return user, true, nil
}

func (repo *Repository) UserByUUID(ctx context.Context, UUID string) (models.User, bool, error) {
	query := `
	SELECT ` + userColumns + `
	FROM users
	WHERE id = $1
	LIMIT 1
	`
	row := repo.db.QueryRowContext(ctx, query, UUID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return user, false, nil
	} else if err != nil {
		return user, false, fmt.Errorf("repository.Repository.UserByUUID: %w", err)
	}

	return user, true, nil
}

func (repo *Repository) AddUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
	INSERT INTO users
		(username, role, full_name, hourly_rate, questionnaire)
	VALUES
		($1, $2, $3, $4, $5)
	RETURNING
		id, created_at, updated_at
	`

	var rate interface{}
	if user.HourlyRate > 0 {
		rate = user.HourlyRate
	}

	var questionnaire interface{}
	if len(user.Questionnaire) > 0 {
		data, err := json.Marshal(user.Questionnaire)
		if err != nil {
			return user, fmt.Errorf("repository.Repository.AddUser: questionnaire marshal failed: %w", err)
		}
		questionnaire = data
	}

	row := repo.db.QueryRowContext(ctx, query, user.Username, user.Role, user.FullName, rate, questionnaire)
	err := row.Scan(&user.Id, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return user, fmt.Errorf("repository.Repository.AddUser: %w", err)
	}

	return user, nil
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown == "true" {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

//// Service

func wrapRollbackErr(tx *sql.Tx, err error) error {
	rollerr := tx.Rollback()
	if rollerr == nil {
		return err
	}
	return fmt.Errorf("failed to rollback transaction after previous error: %w, %w", rollerr, err)
}

func sliceToSQLList[T string | models.RequestStatus](t []T) string {
	parts := make([]string, 0, len(t))
	for _, v := range t {
		parts = append(parts, string(v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

//// Test utils

func (repo *Repository) TestGetDB() *sql.DB {
	return repo.db
}
