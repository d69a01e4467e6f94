package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"collab-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// documentStore keeps documents in a mutex-guarded map. Used as the default
// backend and in tests.
type documentStore struct {
	mu        sync.RWMutex
	documents map[string]core.Document
}

func NewDocumentStore() core.DocumentStore {
	return &documentStore{documents: make(map[string]core.Document)}
}

func (s *documentStore) List(ctx context.Context) ([]core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]core.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
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

	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"document_id": doc.ID, "title": title}).Info("Document created")
	return &doc, nil
}

func (s *documentStore) Get(ctx context.Context, id string) (*core.Document, error) {
	s.mu.RLock()
	doc, ok := s.documents[id]
	s.mu.RUnlock()

	if !ok {
		return nil, core.ErrNotFound
	}
	return &doc, nil
}

func (s *documentStore) UpdateContent(ctx context.Context, id string, content map[string]any) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	doc.Content = content
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return &doc, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

type whiteboardStore struct {
	mu          sync.RWMutex
	whiteboards map[string]core.Whiteboard
}

func NewWhiteboardStore() core.WhiteboardStore {
	return &whiteboardStore{whiteboards: make(map[string]core.Whiteboard)}
}

func (s *whiteboardStore) List(ctx context.Context) ([]core.Whiteboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	boards := make([]core.Whiteboard, 0, len(s.whiteboards))
	for _, wb := range s.whiteboards {
		boards = append(boards, wb)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })
	return boards, nil
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

	s.mu.Lock()
	s.whiteboards[wb.ID] = wb
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"whiteboard_id": wb.ID, "title": title}).Info("Whiteboard created")
	return &wb, nil
}

func (s *whiteboardStore) Get(ctx context.Context, id string) (*core.Whiteboard, error) {
	s.mu.RLock()
	wb, ok := s.whiteboards[id]
	s.mu.RUnlock()

	if !ok {
		return nil, core.ErrNotFound
	}
	return &wb, nil
}

func (s *whiteboardStore) UpdateElements(ctx context.Context, id string, elements []any) (*core.Whiteboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, ok := s.whiteboards[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	wb.Elements = elements
	wb.UpdatedAt = time.Now().UTC()
	s.whiteboards[id] = wb
	return &wb, nil
}

func (s *whiteboardStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.whiteboards[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.whiteboards, id)
	return nil
}
