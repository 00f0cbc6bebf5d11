package memstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when the addressed item does not exist.
var ErrNotFound = errors.New("memstore: item not found")

// SearchResult is one ranked match returned by Search.
type SearchResult struct {
	ID      string
	Content string

	// Score is the fraction of query terms found in the content, in
	// (0, 1].
	Score float64
}

// Store is a sqlite-backed memory store. It is safe for concurrent
// use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// Missing parent directories are created.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// The busy timeout is a connection option, so it has to ride on
	// the DSN to cover every pooled connection.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode persists in the database file and keeps readers
	// running while a tool writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add stores content in the named collection and returns the new
// item's id.
func (s *Store) Add(ctx context.Context, collection, content string) (string, error) {
	if collection == "" {
		return "", errors.New("memstore: collection must not be empty")
	}
	if content == "" {
		return "", errors.New("memstore: content must not be empty")
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, collection, content, created_at) VALUES (?, ?, ?, ?)`,
		id, collection, content, createdAt)
	if err != nil {
		return "", fmt.Errorf("inserting memory: %w", err)
	}
	return id, nil
}

// Search returns up to topK items from collection whose content
// matches the query. Matching is case-insensitive: an item qualifies
// when at least one whitespace-separated query term occurs in its
// content. Results are ranked by the number of matching terms, newest
// first among equals. topK values below one fall back to 5.
func (s *Store) Search(ctx context.Context, collection, query string, topK int) ([]SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}
	if topK < 1 {
		topK = 5
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, created_at FROM memories WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	type match struct {
		result    SearchResult
		hits      int
		createdAt time.Time
	}
	var matches []match
	for rows.Next() {
		var id, content, createdAt string
		if err := rows.Scan(&id, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}

		hits := termHits(content, terms)
		if hits == 0 {
			continue
		}

		// A malformed timestamp only loses the recency tie-break.
		created, _ := time.Parse(time.RFC3339Nano, createdAt)

		matches = append(matches, match{
			result: SearchResult{
				ID:      id,
				Content: content,
				Score:   float64(hits) / float64(len(terms)),
			},
			hits:      hits,
			createdAt: created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading memories: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hits != matches[j].hits {
			return matches[i].hits > matches[j].hits
		}
		if !matches[i].createdAt.Equal(matches[j].createdAt) {
			return matches[i].createdAt.After(matches[j].createdAt)
		}
		return matches[i].result.ID < matches[j].result.ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = m.result
	}
	return results, nil
}

// termHits counts how many of the lowercased terms occur in content.
func termHits(content string, terms []string) int {
	lower := strings.ToLower(content)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return hits
}

// Collections lists the collection names holding at least one item,
// sorted alphabetically.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT collection FROM memories ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading collections: %w", err)
	}
	return names, nil
}

// Delete removes one item from collection. It returns ErrNotFound
// when no such item exists there.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q in collection %q", ErrNotFound, id, collection)
	}
	return nil
}

// Clear removes every item in collection and reports how many were
// removed. Clearing an unknown collection removes zero and is not an
// error.
func (s *Store) Clear(ctx context.Context, collection string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE collection = ?`, collection)
	if err != nil {
		return 0, fmt.Errorf("clearing collection: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing collection: %w", err)
	}
	return removed, nil
}

// Ping reports whether the database is still usable. Health checks
// call it through the Pinger interface.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
