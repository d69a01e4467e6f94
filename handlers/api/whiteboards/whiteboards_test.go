package whiteboards

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"collab-server/core"

	"github.com/go-chi/chi/v5"
)

type mockWhiteboardStore struct {
	mu          sync.RWMutex
	whiteboards map[string]core.Whiteboard
}

func newMockStore() *mockWhiteboardStore {
	return &mockWhiteboardStore{whiteboards: make(map[string]core.Whiteboard)}
}

func (m *mockWhiteboardStore) List(ctx context.Context) ([]core.Whiteboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	boards := make([]core.Whiteboard, 0, len(m.whiteboards))
	for _, wb := range m.whiteboards {
		boards = append(boards, wb)
	}
	return boards, nil
}

func (m *mockWhiteboardStore) Create(ctx context.Context, title string) (*core.Whiteboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	wb := core.Whiteboard{ID: "wb-1", Title: title, Elements: []any{}, CreatedAt: now, UpdatedAt: now}
	m.whiteboards[wb.ID] = wb
	return &wb, nil
}

func (m *mockWhiteboardStore) Get(ctx context.Context, id string) (*core.Whiteboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wb, ok := m.whiteboards[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &wb, nil
}

func (m *mockWhiteboardStore) UpdateElements(ctx context.Context, id string, elements []any) (*core.Whiteboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wb, ok := m.whiteboards[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	wb.Elements = elements
	m.whiteboards[id] = wb
	return &wb, nil
}

func (m *mockWhiteboardStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.whiteboards[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.whiteboards, id)
	return nil
}

type mockNotifier struct {
	mu     sync.Mutex
	rooms  []string
	events []string
}

func (m *mockNotifier) ToRoom(roomID, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = append(m.rooms, roomID)
	m.events = append(m.events, event)
	return nil
}

func newTestRouter(store core.WhiteboardStore, notifier core.RoomNotifier) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/whiteboards", HandleList(store))
	r.Post("/api/whiteboards", HandleCreate(store))
	r.Get("/api/whiteboards/{id}", HandleGet(store))
	r.Delete("/api/whiteboards/{id}", HandleDelete(store, notifier))
	return r
}

func TestHandleCreate_StartsEmpty(t *testing.T) {
	store := newMockStore()
	r := newTestRouter(store, &mockNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/whiteboards", strings.NewReader(`{"title":"Sprint Board"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}

	var wb core.Whiteboard
	if err := json.NewDecoder(rec.Body).Decode(&wb); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if wb.Title != "Sprint Board" {
		t.Errorf("Title mismatch: got %q", wb.Title)
	}
	if wb.Elements == nil || len(wb.Elements) != 0 {
		t.Errorf("New whiteboard should have empty elements: got %v", wb.Elements)
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	store := newMockStore()
	r := newTestRouter(store, &mockNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/whiteboards/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleDelete_NotifiesRoom(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	r := newTestRouter(store, notifier)

	if _, err := store.Create(context.Background(), "Sprint Board"); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/whiteboards/wb-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "wb-deleted" || notifier.rooms[0] != "wb-1" {
		t.Errorf("Expected a single wb-deleted notification for room wb-1, got events=%v rooms=%v",
			notifier.events, notifier.rooms)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["message"] == "" {
		t.Error("Expected a message field in the response body")
	}
}
