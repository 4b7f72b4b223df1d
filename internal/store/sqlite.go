package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    user_id TEXT NOT NULL,
    page_url TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'tracking-not-started',
    current_keyword TEXT NOT NULL DEFAULT '',
    keyword_source TEXT NOT NULL DEFAULT 'gsc-existing',
    title TEXT NOT NULL DEFAULT '',
    meta_description TEXT NOT NULL DEFAULT '',
    implemented_at INTEGER,
    pre_stats TEXT,
    post_stats TEXT,
    post_stats_history TEXT,
    next_update_due INTEGER,
    extended_deadline INTEGER,
    extended_total_days INTEGER NOT NULL DEFAULT 0,
    keyword_history TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
    PRIMARY KEY (user_id, page_url)
);

CREATE INDEX IF NOT EXISTS idx_experiments_user ON experiments(user_id);
CREATE INDEX IF NOT EXISTS idx_experiments_status ON experiments(user_id, status);

CREATE TABLE IF NOT EXISTS archives (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    page_url TEXT NOT NULL,
    kind TEXT NOT NULL,
    entry TEXT NOT NULL,
    archived_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_archives_page ON archives(user_id, page_url, archived_at);

CREATE TABLE IF NOT EXISTS assignments (
    user_id TEXT NOT NULL,
    keyword_lc TEXT NOT NULL,
    keyword TEXT NOT NULL,
    page_url TEXT NOT NULL,
    PRIMARY KEY (user_id, keyword_lc)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_page ON assignments(user_id, page_url);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const experimentColumns = `user_id, page_url, status, current_keyword, keyword_source,
	title, meta_description, implemented_at, pre_stats, post_stats,
	post_stats_history, next_update_due, extended_deadline,
	extended_total_days, keyword_history, created_at, updated_at`

func (s *SQLiteStore) CreateExperiment(ctx context.Context, exp *Experiment) error {
	preJSON, err := marshalSnapshot(exp.PreStats)
	if err != nil {
		return err
	}
	postJSON, err := marshalSnapshot(exp.PostStats)
	if err != nil {
		return err
	}
	historyJSON, err := marshalJSON(exp.PostStatsHistory)
	if err != nil {
		return err
	}
	keywordsJSON, err := marshalJSON(exp.KeywordHistory)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO experiments (user_id, page_url, status, current_keyword, keyword_source,
		     title, meta_description, implemented_at, pre_stats, post_stats,
		     post_stats_history, next_update_due, extended_deadline,
		     extended_total_days, keyword_history, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.UserID, exp.PageURL, string(exp.Status), exp.CurrentKeyword, string(exp.KeywordSource),
		exp.Title, exp.MetaDescription, nullableTime(exp.ImplementedAt), preJSON, postJSON,
		historyJSON, nullableTime(exp.NextUpdateDue), nullableTime(exp.ExtendedDeadline),
		exp.ExtendedTotalDays, keywordsJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}

	exp.CreatedAt = time.Unix(now, 0)
	exp.UpdatedAt = time.Unix(now, 0)
	return nil
}

func (s *SQLiteStore) LoadExperiment(ctx context.Context, userID, pageURL string) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE user_id = ? AND page_url = ?`,
		userID, pageURL,
	)

	exp, err := scanExperiment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}

	if err := s.loadArchives(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context, userID string) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var exps []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		exps = append(exps, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	for _, exp := range exps {
		if err := s.loadArchives(ctx, exp); err != nil {
			return nil, err
		}
	}
	return exps, nil
}

// ApplyPatch writes Set values and NULLs out Clear fields in one update.
// Clearing is a real field deletion, not a zero write, so a cleared
// snapshot reads back as absent.
func (s *SQLiteStore) ApplyPatch(ctx context.Context, userID, pageURL string, p Patch) error {
	var clauses []string
	var args []any

	// Deterministic column order for the Set map
	fields := make([]Field, 0, len(p.Set))
	for f := range p.Set {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	for _, f := range fields {
		v, err := encodeField(f, p.Set[f])
		if err != nil {
			return err
		}
		clauses = append(clauses, string(f)+" = ?")
		args = append(args, v)
	}
	for _, f := range p.Clear {
		clauses = append(clauses, string(f)+" = NULL")
	}

	if len(clauses) == 0 {
		return nil
	}

	clauses = append(clauses, "updated_at = ?")
	args = append(args, time.Now().Unix())
	args = append(args, userID, pageURL)

	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET `+strings.Join(clauses, ", ")+` WHERE user_id = ? AND page_url = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to patch experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendArchive(ctx context.Context, userID, pageURL string, entry ArchiveEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal archive entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO archives (id, user_id, page_url, kind, entry, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, userID, pageURL, string(entry.Kind), string(entryJSON), entry.ArchivedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append archive: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, userID, pageURL string) error {
	// Archives go first so a partial failure never orphans the record
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM archives WHERE user_id = ? AND page_url = ?`, userID, pageURL); err != nil {
		return fmt.Errorf("failed to delete archives: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM experiments WHERE user_id = ? AND page_url = ?`, userID, pageURL)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) LoadAssignments(ctx context.Context, userID string) ([]KeywordAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword, page_url FROM assignments WHERE user_id = ? ORDER BY keyword_lc`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	defer rows.Close()

	var set []KeywordAssignment
	for rows.Next() {
		var a KeywordAssignment
		if err := rows.Scan(&a.Keyword, &a.PageURL); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		set = append(set, a)
	}
	return set, rows.Err()
}

// ReplaceAssignments rebuilds the user's whole registry in one transaction.
func (s *SQLiteStore) ReplaceAssignments(ctx context.Context, userID string, set []KeywordAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	for _, a := range set {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (user_id, keyword_lc, keyword, page_url) VALUES (?, ?, ?, ?)`,
			userID, strings.ToLower(a.Keyword), a.Keyword, a.PageURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadArchives(ctx context.Context, exp *Experiment) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry FROM archives WHERE user_id = ? AND page_url = ? ORDER BY archived_at, id`,
		exp.UserID, exp.PageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to load archives: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryJSON string
		if err := rows.Scan(&entryJSON); err != nil {
			return fmt.Errorf("failed to scan archive: %w", err)
		}
		var entry ArchiveEntry
		if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
			return fmt.Errorf("failed to unmarshal archive entry: %w", err)
		}
		exp.Archives = append(exp.Archives, entry)
	}
	return rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExperiment(row scannable) (*Experiment, error) {
	var exp Experiment
	var status, source string
	var implementedAt, nextUpdateDue, extendedDeadline sql.NullInt64
	var preJSON, postJSON, historyJSON, keywordsJSON sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&exp.UserID, &exp.PageURL, &status, &exp.CurrentKeyword, &source,
		&exp.Title, &exp.MetaDescription, &implementedAt, &preJSON, &postJSON,
		&historyJSON, &nextUpdateDue, &extendedDeadline,
		&exp.ExtendedTotalDays, &keywordsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	exp.Status = ExperimentStatus(status)
	exp.KeywordSource = KeywordSource(source)
	exp.ImplementedAt = timePtr(implementedAt)
	exp.NextUpdateDue = timePtr(nextUpdateDue)
	exp.ExtendedDeadline = timePtr(extendedDeadline)
	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	if exp.PreStats, err = unmarshalSnapshot(preJSON); err != nil {
		return nil, err
	}
	if exp.PostStats, err = unmarshalSnapshot(postJSON); err != nil {
		return nil, err
	}
	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &exp.PostStatsHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post stats history: %w", err)
		}
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &exp.KeywordHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keyword history: %w", err)
		}
	}

	return &exp, nil
}

// encodeField converts a patch value into its column representation.
func encodeField(f Field, v any) (any, error) {
	switch f {
	case FieldStatus:
		if s, ok := v.(ExperimentStatus); ok {
			return string(s), nil
		}
	case FieldKeywordSource:
		if s, ok := v.(KeywordSource); ok {
			return string(s), nil
		}
	case FieldCurrentKeyword, FieldTitle, FieldMetaDescription:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FieldImplementedAt, FieldNextUpdateDue, FieldExtendedDeadline:
		if t, ok := v.(time.Time); ok {
			return t.Unix(), nil
		}
	case FieldExtendedTotalDays:
		if n, ok := v.(int); ok {
			return n, nil
		}
	case FieldPreStats, FieldPostStats:
		if snap, ok := v.(*StatsSnapshot); ok {
			return marshalSnapshot(snap)
		}
	case FieldPostStatsHistory:
		if list, ok := v.([]StatsSnapshot); ok {
			return marshalJSON(list)
		}
	case FieldKeywordHistory:
		if list, ok := v.([]KeywordTrial); ok {
			return marshalJSON(list)
		}
	default:
		return nil, fmt.Errorf("unknown field %q", f)
	}
	return nil, fmt.Errorf("invalid value type for field %q", f)
}

func marshalSnapshot(snap *StatsSnapshot) (sql.NullString, error) {
	if snap == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalSnapshot(col sql.NullString) (*StatsSnapshot, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var snap StatsSnapshot
	if err := json.Unmarshal([]byte(col.String), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func marshalJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal: %w", err)
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(col sql.NullInt64) *time.Time {
	if !col.Valid {
		return nil
	}
	t := time.Unix(col.Int64, 0)
	return &t
}
