package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/config"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/models"
)

var _ core.IngestionRecorder = (*RunRecorder)(nil)

// RunRecorder keeps an audit row per upload in Postgres.
type RunRecorder struct {
	db  *sql.DB
	log *zap.Logger
}

func NewRunRecorder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*RunRecorder, error) {
	if cfg == nil {
		return nil, errors.New("database client configuration is nil")
	}
	dsn, err := buildDSN(cfg.DatabaseURL, cfg.DatabaseSSLRootCert)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	logger.Info("ingestion runs recorded in postgres")
	return &RunRecorder{db: db, log: logger}, nil
}

// buildDSN appends certificate verification to rawURL when a root
// certificate is configured.
func buildDSN(rawURL, sslRootCert string) (string, error) {
	if rawURL == "" {
		return "", errors.New("DATABASE_URL is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if sslRootCert == "" {
		return u.String(), nil
	}
	if _, err := os.Stat(sslRootCert); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslRootCert, err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslRootCert)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *RunRecorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *RunRecorder) StartRun(ctx context.Context, run *models.IngestionRun) error {
	if run == nil {
		return errors.New("nil ingestion run")
	}
	const q = `
		INSERT INTO ingestion_runs (id, organization_id, file_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, q, run.ID, run.OrganizationID, run.FileName, run.Status).
		Scan(&run.CreatedAt, &run.UpdatedAt)
}

func (r *RunRecorder) UpdateRun(ctx context.Context, run *models.IngestionRun) error {
	if run == nil {
		return errors.New("nil ingestion run")
	}
	const q = `
		UPDATE ingestion_runs
		SET document_uid = $2, status = $3, faqs_extracted = $4, faqs_created = $5,
		    faqs_failed = $6, error = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		run.ID, run.DocumentUID, run.Status, run.FAQsExtracted, run.FAQsCreated, run.FAQsFailed, run.Error,
	).Scan(&run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("ingestion run not found: %s", run.ID)
	}
	return err
}

// ListRuns returns the latest runs of an organization, newest first.
func (r *RunRecorder) ListRuns(ctx context.Context, organizationID string, limit int) ([]models.IngestionRun, error) {
	const q = `
		SELECT id, organization_id, document_uid, file_name, status,
		       faqs_extracted, faqs_created, faqs_failed, error, created_at, updated_at
		FROM ingestion_runs
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, organizationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.IngestionRun{}
	for rows.Next() {
		var run models.IngestionRun
		if err := rows.Scan(
			&run.ID, &run.OrganizationID, &run.DocumentUID, &run.FileName, &run.Status,
			&run.FAQsExtracted, &run.FAQsCreated, &run.FAQsFailed, &run.Error, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
