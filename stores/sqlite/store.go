package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"collab-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Open opens the database and creates the schema. Content and elements are
// stored as JSON text; the server never queries inside them.
func Open(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS whiteboards (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			elements TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return db, nil
}

type documentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) core.DocumentStore {
	return &documentStore{db: db}
}

func (s *documentStore) List(ctx context.Context) ([]core.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM documents ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []core.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *documentStore) Create(ctx context.Context, title string) (*core.Document, error) {
	now := time.Now().UTC()
	doc := core.Document{
		ID:        ulid.Make().String(),
		Title:     title,
		Content:   map[string]any{"text": ""},
		CreatedAt: now,
		UpdatedAt: now,
	}

	content, err := json.Marshal(doc.Content)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.Title, string(content), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		logrus.WithField("document_id", doc.ID).WithError(err).Error("Failed to create document")
		return nil, err
	}
	return &doc, nil
}

func (s *documentStore) Get(ctx context.Context, id string) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	return doc, err
}

func (s *documentStore) UpdateContent(ctx context.Context, id string, content map[string]any) (*core.Document, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET content = ?, updated_at = ? WHERE id = ?",
		string(raw), now.UnixMilli(), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, core.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanDocument(scan func(dest ...any) error) (*core.Document, error) {
	var (
		doc       core.Document
		content   string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&doc.ID, &doc.Title, &content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &doc.Content); err != nil {
		return nil, fmt.Errorf("decode content for document %s: %w", doc.ID, err)
	}
	doc.CreatedAt = time.UnixMilli(createdAt).UTC()
	doc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &doc, nil
}

type whiteboardStore struct {
	db *sql.DB
}

func NewWhiteboardStore(db *sql.DB) core.WhiteboardStore {
	return &whiteboardStore{db: db}
}

func (s *whiteboardStore) List(ctx context.Context) ([]core.Whiteboard, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, elements, created_at, updated_at FROM whiteboards ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []core.Whiteboard{}
	for rows.Next() {
		wb, err := scanWhiteboard(rows.Scan)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *wb)
	}
	return boards, rows.Err()
}

func (s *whiteboardStore) Create(ctx context.Context, title string) (*core.Whiteboard, error) {
	now := time.Now().UTC()
	wb := core.Whiteboard{
		ID:        ulid.Make().String(),
		Title:     title,
		Elements:  []any{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO whiteboards (id, title, elements, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		wb.ID, wb.Title, "[]", now.UnixMilli(), now.UnixMilli())
	if err != nil {
		logrus.WithField("whiteboard_id", wb.ID).WithError(err).Error("Failed to create whiteboard")
		return nil, err
	}
	return &wb, nil
}

func (s *whiteboardStore) Get(ctx context.Context, id string) (*core.Whiteboard, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, elements, created_at, updated_at FROM whiteboards WHERE id = ?", id)
	wb, err := scanWhiteboard(row.Scan)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	return wb, err
}

func (s *whiteboardStore) UpdateElements(ctx context.Context, id string, elements []any) (*core.Whiteboard, error) {
	raw, err := json.Marshal(elements)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE whiteboards SET elements = ?, updated_at = ? WHERE id = ?",
		string(raw), now.UnixMilli(), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, core.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *whiteboardStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM whiteboards WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanWhiteboard(scan func(dest ...any) error) (*core.Whiteboard, error) {
	var (
		wb        core.Whiteboard
		elements  string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&wb.ID, &wb.Title, &elements, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(elements), &wb.Elements); err != nil {
		return nil, fmt.Errorf("decode elements for whiteboard %s: %w", wb.ID, err)
	}
	if wb.Elements == nil {
		wb.Elements = []any{}
	}
	wb.CreatedAt = time.UnixMilli(createdAt).UTC()
	wb.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &wb, nil
}
