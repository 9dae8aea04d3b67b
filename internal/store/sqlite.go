package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/ideas/internal/models"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
// DSNs with a libsql:// or http(s):// scheme are opened through the libsql
// client instead, which speaks the same SQL dialect to a remote database.
type SQLiteStore struct {
	db *sql.DB
}

// isRemoteDSN reports whether dsn points at a libsql server rather than a file.
func isRemoteDSN(dsn string) bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// localDSN applies the pragmas on every connection the pool opens and makes
// transactions take the write lock at BEGIN. A deferred transaction that
// upgrades from read to write fails with SQLITE_BUSY without waiting when
// another process holds the lock.
func localDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if isRemoteDSN(dbPath) {
		db, err := sql.Open("libsql", dbPath)
		if err != nil {
			return nil, fmt.Errorf("open remote database: %w", err)
		}
		db.SetMaxOpenConns(1)
		return &SQLiteStore{db: db}, nil
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", localDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes statements within this process; other processes sharing
	// the file wait on busy_timeout.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Collections ---

func (s *SQLiteStore) CreateCollection(ctx context.Context, c *models.Collection) error {
	if c.ID == "" {
		c.ID = newULID()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (id, name, url, summary, language, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.URL, c.Summary, c.Language, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	c := &models.Collection{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, summary, language, created_at FROM collections WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.URL, &c.Summary, &c.Language, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("collection", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, summary, language, created_at FROM collections ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var collections []*models.Collection
	for rows.Next() {
		c := &models.Collection{}
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.Summary, &c.Language, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("collection", id)
	}
	return nil
}

// --- Ideas ---

const ideaColumns = `id, collection_id, title, hook, value, evidence, differentiator, call_to_action, kind,
	score, mvp_effort, status, deep_dive, deep_dive_requested, llm_raw_response, deep_dive_raw_response,
	created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdea(row rowScanner) (*models.Idea, error) {
	idea := &models.Idea{}
	var collectionID, deepDive sql.NullString
	var score, effort sql.NullInt64
	var status string

	if err := row.Scan(&idea.ID, &collectionID, &idea.Title, &idea.Hook, &idea.Value, &idea.Evidence,
		&idea.Differentiator, &idea.CallToAction, &idea.Kind,
		&score, &effort, &status, &deepDive, &idea.DeepDiveRequested,
		&idea.LLMRawResponse, &idea.DeepDiveRawResponse,
		&idea.CreatedAt, &idea.UpdatedAt); err != nil {
		return nil, err
	}

	idea.CollectionID = collectionID.String
	idea.Score = intPtr(score)
	idea.MVPEffort = intPtr(effort)
	idea.Status = models.IdeaStatus(status)
	if deepDive.Valid {
		dd, err := models.DecodeDeepDive(deepDive.String)
		if err != nil {
			return nil, fmt.Errorf("decode deep dive for idea %s: %w", idea.ID, err)
		}
		idea.DeepDive = dd
	}
	return idea, nil
}

func encodeDeepDive(dd *models.DeepDive) (sql.NullString, error) {
	if dd == nil {
		return sql.NullString{}, nil
	}
	enc, err := dd.Encode()
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode deep dive: %w", err)
	}
	return sql.NullString{String: enc, Valid: true}, nil
}

func (s *SQLiteStore) CreateIdea(ctx context.Context, idea *models.Idea) error {
	if idea.ID == "" {
		idea.ID = newULID()
	}
	if idea.Status == "" {
		idea.Status = models.IdeaStatusSuggested
	}
	now := time.Now().UTC()
	idea.CreatedAt = now
	idea.UpdatedAt = now

	deepDive, err := encodeDeepDive(idea.DeepDive)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ideas (`+ideaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID, nullString(idea.CollectionID), idea.Title, idea.Hook, idea.Value, idea.Evidence,
		idea.Differentiator, idea.CallToAction, idea.Kind,
		nullInt(idea.Score), nullInt(idea.MVPEffort), string(idea.Status), deepDive,
		boolToInt(idea.DeepDiveRequested), idea.LLMRawResponse, idea.DeepDiveRawResponse,
		idea.CreatedAt, idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create idea: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetIdea(ctx context.Context, id string) (*models.Idea, error) {
	idea, err := scanIdea(s.db.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("idea", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}
	return idea, nil
}

func (s *SQLiteStore) ListIdeas(ctx context.Context, filter IdeaListFilter) ([]*models.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas`
	var conditions []string
	var args []any

	if filter.CollectionID != "" {
		conditions = append(conditions, "collection_id = ?")
		args = append(args, filter.CollectionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	return s.scanIdeas(ctx, query, args...)
}

func (s *SQLiteStore) scanIdeas(ctx context.Context, query string, args ...any) ([]*models.Idea, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ideas []*models.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// UpdateIdea writes the pitch fields. Status, the deep dive and its guard are
// owned by the lifecycle engine and have dedicated methods.
func (s *SQLiteStore) UpdateIdea(ctx context.Context, idea *models.Idea) error {
	idea.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET title=?, hook=?, value=?, evidence=?, differentiator=?, call_to_action=?, kind=?,
		score=?, mvp_effort=?, llm_raw_response=?, updated_at=?
		WHERE id=?`,
		idea.Title, idea.Hook, idea.Value, idea.Evidence, idea.Differentiator, idea.CallToAction, idea.Kind,
		nullInt(idea.Score), nullInt(idea.MVPEffort), idea.LLMRawResponse, idea.UpdatedAt, idea.ID,
	)
	if err != nil {
		return fmt.Errorf("update idea: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("idea", idea.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteIdea(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("idea", id)
	}
	return nil
}

func (s *SQLiteStore) UpdateIdeaStatus(ctx context.Context, id string, status models.IdeaStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET status=?, updated_at=? WHERE id=?`, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update idea status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("idea", id)
	}
	return nil
}

// ClaimDeepDive sets the deep dive guard if it is not already set. The check
// and the write are a single statement, so at most one caller wins.
func (s *SQLiteStore) ClaimDeepDive(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET deep_dive_requested=1, updated_at=? WHERE id=? AND deep_dive_requested=0`,
		time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("claim deep dive: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 1 {
		return true, nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ideas WHERE id = ?", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("claim deep dive: %w", err)
	}
	if exists == 0 {
		return false, notFound("idea", id)
	}
	return false, nil
}

func (s *SQLiteStore) ReleaseDeepDive(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET deep_dive_requested=0, updated_at=? WHERE id=?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("release deep dive: %w", err)
	}
	return nil
}

// CompleteDeepDive stores a generated deep dive and clears the guard.
func (s *SQLiteStore) CompleteDeepDive(ctx context.Context, id string, dd models.DeepDive, raw string) error {
	enc, err := encodeDeepDive(&dd)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET deep_dive=?, deep_dive_raw_response=?, deep_dive_requested=0, updated_at=? WHERE id=?`,
		enc, raw, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("save deep dive: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("idea", id)
	}
	return nil
}

// ClearDeepDive removes the current deep dive and clears the guard. Versions
// are kept.
func (s *SQLiteStore) ClearDeepDive(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET deep_dive=NULL, deep_dive_raw_response='', deep_dive_requested=0, updated_at=? WHERE id=?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("clear deep dive: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("idea", id)
	}
	return nil
}

// --- Deep Dive Versions ---

// CreateDeepDiveVersion assigns the next version number for the idea and
// inserts the snapshot in a single statement.
func (s *SQLiteStore) CreateDeepDiveVersion(ctx context.Context, v *models.DeepDiveVersion) error {
	if v.ID == "" {
		v.ID = newULID()
	}
	v.CreatedAt = time.Now().UTC()
	fields, err := v.Fields.Encode()
	if err != nil {
		return fmt.Errorf("encode version fields: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO deep_dive_versions (id, idea_id, version_number, fields, llm_raw_response, created_at)
		SELECT ?, i.id,
			(SELECT COALESCE(MAX(version_number), 0) + 1 FROM deep_dive_versions WHERE idea_id = i.id),
			?, ?, ?
		FROM ideas i WHERE i.id = ?
		RETURNING version_number`,
		v.ID, fields, v.LLMRawResponse, v.CreatedAt, v.IdeaID,
	).Scan(&v.VersionNumber)
	if err == sql.ErrNoRows {
		return notFound("idea", v.IdeaID)
	}
	if err != nil {
		return fmt.Errorf("create deep dive version: %w", err)
	}
	return nil
}

func scanVersion(row rowScanner) (*models.DeepDiveVersion, error) {
	v := &models.DeepDiveVersion{}
	var fields string
	if err := row.Scan(&v.ID, &v.IdeaID, &v.VersionNumber, &fields, &v.LLMRawResponse, &v.CreatedAt); err != nil {
		return nil, err
	}
	dd, err := models.DecodeDeepDive(fields)
	if err != nil {
		return nil, fmt.Errorf("decode version %d fields: %w", v.VersionNumber, err)
	}
	if dd != nil {
		v.Fields = *dd
	}
	return v, nil
}

// ListDeepDiveVersions returns the idea's versions, newest first.
func (s *SQLiteStore) ListDeepDiveVersions(ctx context.Context, ideaID string) ([]*models.DeepDiveVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idea_id, version_number, fields, llm_raw_response, created_at
		FROM deep_dive_versions WHERE idea_id = ? ORDER BY version_number DESC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list deep dive versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []*models.DeepDiveVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deep dive version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) GetDeepDiveVersion(ctx context.Context, ideaID string, number int) (*models.DeepDiveVersion, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx,
		`SELECT id, idea_id, version_number, fields, llm_raw_response, created_at
		FROM deep_dive_versions WHERE idea_id = ? AND version_number = ?`, ideaID, number))
	if err == sql.ErrNoRows {
		return nil, notFound("deep dive version", fmt.Sprintf("%s/%d", ideaID, number))
	}
	if err != nil {
		return nil, fmt.Errorf("get deep dive version: %w", err)
	}
	return v, nil
}

// RestoreDeepDiveVersion copies a version back onto the idea. It does not
// create a new version and leaves the guard untouched.
func (s *SQLiteStore) RestoreDeepDiveVersion(ctx context.Context, ideaID string, number int) (*models.Idea, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var fields, raw string
	err = tx.QueryRowContext(ctx,
		`SELECT fields, llm_raw_response FROM deep_dive_versions WHERE idea_id = ? AND version_number = ?`,
		ideaID, number).Scan(&fields, &raw)
	if err == sql.ErrNoRows {
		return nil, notFound("deep dive version", fmt.Sprintf("%s/%d", ideaID, number))
	}
	if err != nil {
		return nil, fmt.Errorf("get deep dive version: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE ideas SET deep_dive=?, deep_dive_raw_response=?, updated_at=? WHERE id=?`,
		fields, raw, time.Now().UTC(), ideaID)
	if err != nil {
		return nil, fmt.Errorf("restore deep dive version: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, notFound("idea", ideaID)
	}

	idea, err := scanIdea(tx.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, ideaID))
	if err != nil {
		return nil, fmt.Errorf("reload idea: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return idea, nil
}

func (s *SQLiteStore) DeleteDeepDiveVersion(ctx context.Context, ideaID string, number int) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM deep_dive_versions WHERE idea_id = ? AND version_number = ?", ideaID, number)
	if err != nil {
		return fmt.Errorf("delete deep dive version: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("deep dive version", fmt.Sprintf("%s/%d", ideaID, number))
	}
	return nil
}

// --- Shortlist ---

func (s *SQLiteStore) AddToShortlist(ctx context.Context, ideaID string) (*models.ShortlistEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM ideas WHERE id = ?", ideaID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check idea: %w", err)
	}
	if exists == 0 {
		return nil, notFound("idea", ideaID)
	}

	var listed int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM shortlist WHERE idea_id = ?", ideaID).Scan(&listed); err != nil {
		return nil, fmt.Errorf("check shortlist: %w", err)
	}
	if listed > 0 {
		return nil, fmt.Errorf("idea %s already shortlisted: %w", ideaID, models.ErrConflict)
	}

	entry := &models.ShortlistEntry{ID: newULID(), IdeaID: ideaID, CreatedAt: time.Now().UTC()}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO shortlist (id, idea_id, created_at) VALUES (?, ?, ?)",
		entry.ID, entry.IdeaID, entry.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("add to shortlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) RemoveFromShortlist(ctx context.Context, ideaID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM shortlist WHERE idea_id = ?", ideaID)
	if err != nil {
		return fmt.Errorf("remove from shortlist: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("shortlist entry", ideaID)
	}
	return nil
}

// ListShortlist returns shortlisted ideas in the order they were added.
func (s *SQLiteStore) ListShortlist(ctx context.Context) ([]*models.Idea, error) {
	return s.scanIdeas(ctx,
		`SELECT i.id, i.collection_id, i.title, i.hook, i.value, i.evidence, i.differentiator, i.call_to_action, i.kind,
		i.score, i.mvp_effort, i.status, i.deep_dive, i.deep_dive_requested, i.llm_raw_response, i.deep_dive_raw_response,
		i.created_at, i.updated_at
		FROM shortlist s JOIN ideas i ON i.id = s.idea_id ORDER BY s.rowid`)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
