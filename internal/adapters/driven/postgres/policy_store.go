package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PolicyStore = (*PolicyStore)(nil)

const policyColumns = `id, url, domain, version, title, company, last_updated, raw_text,
	content_hash, extraction_method, analysis, created_at, last_checked`

// PolicyStore implements driven.PolicyStore using PostgreSQL.
// Every version is its own row in policies; superseded versions also get a policy_history row.
type PolicyStore struct {
	db *DB
}

// NewPolicyStore creates a new PolicyStore
func NewPolicyStore(db *DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// GetByURL retrieves the highest version stored for url
func (s *PolicyStore) GetByURL(ctx context.Context, url string) (*domain.PolicyRecord, error) {
	query := `SELECT ` + policyColumns + `
		FROM policies
		WHERE url = $1
		ORDER BY version DESC
		LIMIT 1`

	record, err := scanPolicy(s.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy by url: %w", err)
	}
	return record, nil
}

// Get retrieves a policy version by ID
func (s *PolicyStore) Get(ctx context.Context, id string) (*domain.PolicyRecord, error) {
	query := `SELECT ` + policyColumns + `
		FROM policies
		WHERE id = $1`

	record, err := scanPolicy(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return record, nil
}

// SaveVersion decides between touching the latest version and inserting a new one
// while holding the URL's advisory lock, so the decision and the write are atomic.
func (s *PolicyStore) SaveVersion(ctx context.Context, record *domain.PolicyRecord) (*domain.SaveResult, error) {
	var result *domain.SaveResult
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := lockURL(ctx, tx, record.URL); err != nil {
			return err
		}

		previous, err := latestVersion(ctx, tx, record.URL)
		if err != nil {
			return err
		}

		if previous != nil && previous.StoredHash() == record.ContentHash {
			if previous.Analysis.Cacheable() {
				err = touch(ctx, tx, previous.ID, record.LastChecked)
			} else {
				err = replaceAnalysis(ctx, tx, previous.ID, record.Analysis, record.LastChecked)
				previous.Analysis = record.Analysis
			}
			if err != nil {
				return err
			}
			previous.LastChecked = record.LastChecked
			result = &domain.SaveResult{PolicyID: previous.ID, IsNew: false, Record: previous}
			return nil
		}

		stored := *record
		stored.Version = 1
		if previous != nil {
			stored.Version = previous.Version + 1
			stored.CreatedAt = previous.CreatedAt
		}
		if err := insertPolicy(ctx, tx, &stored); err != nil {
			return err
		}
		if previous != nil {
			if err := insertHistory(ctx, tx, &stored, previous); err != nil {
				return err
			}
		}
		result = &domain.SaveResult{PolicyID: stored.ID, IsNew: true, Record: &stored}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// latestVersion returns the highest version for url, nil when none is stored
func latestVersion(ctx context.Context, q querier, url string) (*domain.PolicyRecord, error) {
	query := `SELECT ` + policyColumns + `
		FROM policies
		WHERE url = $1
		ORDER BY version DESC
		LIMIT 1`

	record, err := scanPolicy(q.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest policy version: %w", err)
	}
	return record, nil
}

func insertPolicy(ctx context.Context, q querier, record *domain.PolicyRecord) error {
	analysisJSON, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO policies (`+policyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		record.ID,
		record.URL,
		record.Domain,
		record.Version,
		record.Title,
		nullString(record.Company),
		nullTime(record.LastUpdated),
		record.RawText,
		record.ContentHash,
		string(record.ExtractionMethod),
		analysisJSON,
		record.CreatedAt,
		record.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("failed to insert policy: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, q querier, record, previous *domain.PolicyRecord) error {
	summaryJSON, err := json.Marshal(previous.Analysis.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO policy_history (id, policy_id, superseded_by, url, version, snapshot_date,
			raw_text, summary, score, score_explanation, changes_detected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)`,
		historyID(previous.ID),
		previous.ID,
		record.ID,
		previous.URL,
		previous.Version,
		record.LastChecked,
		previous.RawText,
		summaryJSON,
		previous.Analysis.Score.Value,
		previous.Analysis.Score.Explanation,
	)
	if err != nil {
		return fmt.Errorf("failed to insert policy history: %w", err)
	}
	return nil
}

// replaceAnalysis overwrites a failed or placeholder analysis on an unchanged version
func replaceAnalysis(ctx context.Context, q querier, id string, analysis domain.AnalysisResult, checkedAt time.Time) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE policies SET analysis = $2, last_checked = $3 WHERE id = $1`, id, analysisJSON, checkedAt); err != nil {
		return fmt.Errorf("failed to replace policy analysis: %w", err)
	}
	return nil
}

func touch(ctx context.Context, q querier, id string, checkedAt time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE policies SET last_checked = $2 WHERE id = $1`, id, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to touch policy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to touch policy: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListVersions retrieves every version for url, newest first
func (s *PolicyStore) ListVersions(ctx context.Context, url string) ([]*domain.PolicyRecord, error) {
	query := `SELECT ` + policyColumns + `
		FROM policies
		WHERE url = $1
		ORDER BY version DESC`

	rows, err := s.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy versions: %w", err)
	}
	defer rows.Close()

	var records []*domain.PolicyRecord
	for rows.Next() {
		record, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListHistory retrieves the superseded snapshots for url, newest first
func (s *PolicyStore) ListHistory(ctx context.Context, url string) ([]*domain.PolicyHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy_id, superseded_by, version, snapshot_date, raw_text,
		       summary, score, score_explanation, changes_detected
		FROM policy_history
		WHERE url = $1
		ORDER BY version DESC`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.PolicyHistoryEntry
	for rows.Next() {
		var entry domain.PolicyHistoryEntry
		var supersededBy sql.NullString
		var summaryJSON []byte

		if err := rows.Scan(
			&entry.ID,
			&entry.PolicyID,
			&supersededBy,
			&entry.Version,
			&entry.SnapshotDate,
			&entry.RawText,
			&summaryJSON,
			&entry.Score.Value,
			&entry.Score.Explanation,
			&entry.ChangesDetected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan policy history: %w", err)
		}

		entry.SupersededBy = supersededBy.String
		entry.SnapshotDate = entry.SnapshotDate.UTC()
		if err := json.Unmarshal(summaryJSON, &entry.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history summary: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*domain.PolicyRecord, error) {
	var record domain.PolicyRecord
	var company sql.NullString
	var lastUpdated sql.NullTime
	var method string
	var analysisJSON []byte

	if err := row.Scan(
		&record.ID,
		&record.URL,
		&record.Domain,
		&record.Version,
		&record.Title,
		&company,
		&lastUpdated,
		&record.RawText,
		&record.ContentHash,
		&method,
		&analysisJSON,
		&record.CreatedAt,
		&record.LastChecked,
	); err != nil {
		return nil, err
	}

	analysis, err := decodeAnalysis(analysisJSON)
	if err != nil {
		return nil, err
	}

	record.Company = company.String
	record.LastUpdated = timePtr(lastUpdated)
	record.ExtractionMethod = domain.FetchMethod(method)
	record.Analysis = analysis
	record.CreatedAt = record.CreatedAt.UTC()
	record.LastChecked = record.LastChecked.UTC()
	return &record, nil
}

// decodeAnalysis reads the JSONB analysis column back into the fixed schema
func decodeAnalysis(data []byte) (domain.AnalysisResult, error) {
	var analysis domain.AnalysisResult
	if len(data) == 0 {
		analysis.Normalize()
		return analysis, nil
	}
	if err := json.Unmarshal(data, &analysis); err != nil {
		return analysis, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	analysis.Normalize()
	return analysis, nil
}

// historyID derives the snapshot id from the superseded version id
func historyID(policyID string) string {
	return "hist_" + policyID
}
