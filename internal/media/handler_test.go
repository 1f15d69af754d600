package media

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"medialist/internal/auth"
	"medialist/internal/session"

	"github.com/gin-gonic/gin"
)

type favoriteKey struct {
	username string
	id       int64
}

type memStore struct {
	mu        sync.Mutex
	entries   map[int64]Media
	favorites map[favoriteKey]bool
	genres    map[int64][]string
	known     map[string]bool
	nextID    int64
	filters   []Filter
	err       error
}

func newMemStore() *memStore {
	return &memStore{
		entries:   make(map[int64]Media),
		favorites: make(map[favoriteKey]bool),
		genres:    make(map[int64][]string),
		known:     map[string]bool{"drama": true},
	}
}

func (m *memStore) seed(creator, title string) int64 {
	e, _ := m.Create(context.Background(), creator, Media{Title: title})
	return e.ID
}

func (m *memStore) List(ctx context.Context, filter Filter) ([]Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.filters = append(m.filters, filter)
	out := []Media{}
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrMediaNotFound
	}
	return &e, nil
}

func (m *memStore) Create(ctx context.Context, creator string, e Media) (*Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.entries {
		if strings.EqualFold(existing.Title, e.Title) {
			return nil, ErrTitleExists
		}
	}
	if e.Type == "" {
		e.Type = DefaultType
	}
	m.nextID++
	e.ID = m.nextID
	e.Creator = creator
	m.entries[e.ID] = e
	return &e, nil
}

func (m *memStore) Update(ctx context.Context, id int64, changes Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return ErrMediaNotFound
	}
	if changes.Title != nil {
		e.Title = *changes.Title
	}
	if changes.Description != nil {
		e.Description = *changes.Description
	}
	if changes.ReleaseYear != nil {
		e.ReleaseYear = *changes.ReleaseYear
	}
	m.entries[id] = e
	return nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrMediaNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memStore) Reviews(ctx context.Context, id int64) ([]Review, error) {
	return []Review{{ID: 1, Username: "bob", Score: 4}}, nil
}

func (m *memStore) ToggleFavorite(ctx context.Context, username string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return false, ErrMediaNotFound
	}
	key := favoriteKey{username, id}
	m.favorites[key] = !m.favorites[key]
	return m.favorites[key], nil
}

func (m *memStore) AddGenre(ctx context.Context, id int64, genre string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.known[strings.ToLower(genre)] {
		return ErrUnknownGenre
	}
	m.genres[id] = append(m.genres[id], genre)
	return nil
}

func (m *memStore) Recommendations(ctx context.Context, username string) ([]Media, error) {
	return []Media{{ID: 9, Title: "For " + username}}, nil
}

// staticResolver resolves fixed tokens to sessions
type staticResolver map[string]session.Session

func (r staticResolver) Resolve(token string) (session.Session, bool) {
	s, ok := r[token]
	return s, ok
}

var testSessions = staticResolver{
	"alice-token": {Token: "alice-token", Username: "alice"},
	"bob-token":   {Token: "bob-token", Username: "bob"},
	"admin-token": {Token: "admin-token", Username: "root", IsAdmin: true},
}

func newTestRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.SessionMiddleware(testSessions))
	NewHandler(store, nil).RegisterRoutes(r)
	return r
}

func do(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListIsPublic(t *testing.T) {
	store := newMemStore()
	store.seed("alice", "Heat")
	r := newTestRouter(store)

	w := do(r, http.MethodGet, "/media?search=he&type=Movie&year=1995&age=abc&genre=Drama&sort=score", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Success bool    `json:"success"`
		Data    []Media `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 || resp.Data[0].Creator != "alice" {
		t.Errorf("unexpected list: %+v", resp)
	}

	want := Filter{Search: "he", Type: "Movie", Genre: "Drama", Year: 1995, Sort: "score"}
	if got := store.filters[0]; got != want {
		t.Errorf("filter = %+v, want %+v", got, want)
	}
}

func TestGetIncludesRatings(t *testing.T) {
	store := newMemStore()
	id := store.seed("alice", "Heat")
	r := newTestRouter(store)

	w := do(r, http.MethodGet, "/media/"+strconv.FormatInt(id, 10), "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ratings":[`) {
		t.Fatalf("Expected detail with ratings, got %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodGet, "/media/42", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/media/abc", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid id, got %d", w.Code)
	}
}

func TestCreateMedia(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)

	body := `{"title":"Heat","type":"Movie","release_year":1995,"age_restriction":16}`
	if w := do(r, http.MethodPost, "/media", body, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 without session, got %d", w.Code)
	}

	w := do(r, http.MethodPost, "/media", body, "alice-token")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	e, err := store.GetByID(context.Background(), 1)
	if err != nil || e.Creator != "alice" || e.ReleaseYear != 1995 {
		t.Fatalf("unexpected stored entry %+v, %v", e, err)
	}

	if w := do(r, http.MethodPost, "/media", `{"title":"heat"}`, "bob-token"); w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate title, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/media", `{"title":"   "}`, "bob-token"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for blank title, got %d", w.Code)
	}
}

func TestUpdateOwnerOrAdmin(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"other user", "bob-token", http.StatusForbidden},
		{"creator", "alice-token", http.StatusOK},
		{"admin", "admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.seed("alice", "Heat")
			r := newTestRouter(store)

			w := do(r, http.MethodPut, "/media/1", `{"description":"changed"}`, tt.token)
			if w.Code != tt.want {
				t.Fatalf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}

			e, _ := store.GetByID(context.Background(), 1)
			changed := e.Description == "changed"
			if changed != (tt.want == http.StatusOK) {
				t.Errorf("description changed = %v for status %d", changed, w.Code)
			}
		})
	}
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	store := newMemStore()
	store.seed("alice", "Heat")
	r := newTestRouter(store)

	if w := do(r, http.MethodPut, "/media/1", `{"title":" "}`, "alice-token"); w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/media/7", `{"title":"Ronin"}`, "admin-token"); w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteOwnerOrAdmin(t *testing.T) {
	store := newMemStore()
	store.seed("alice", "Heat")
	store.seed("alice", "Ronin")
	r := newTestRouter(store)

	if w := do(r, http.MethodDelete, "/media/1", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/media/1", "", "bob-token"); w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}
	if _, err := store.GetByID(context.Background(), 1); err != nil {
		t.Fatal("forbidden delete must not remove the entry")
	}

	if w := do(r, http.MethodDelete, "/media/1", "", "alice-token"); w.Code != http.StatusOK {
		t.Fatalf("Expected creator delete to succeed, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/media/2", "", "admin-token"); w.Code != http.StatusOK {
		t.Fatalf("Expected admin delete to succeed, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/media/2", "", "admin-token"); w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for deleted entry, got %d", w.Code)
	}
}

func TestToggleFavorite(t *testing.T) {
	store := newMemStore()
	store.seed("alice", "Heat")
	r := newTestRouter(store)

	if w := do(r, http.MethodPost, "/media/1/favorite", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}

	for _, want := range []string{`"is_favorite":true`, `"is_favorite":false`} {
		w := do(r, http.MethodPost, "/media/1/favorite", "", "bob-token")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), want) {
			t.Fatalf("Expected %s, got %d %s", want, w.Code, w.Body.String())
		}
	}

	if w := do(r, http.MethodPost, "/media/5/favorite", "", "bob-token"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAddGenreOwnerOrAdmin(t *testing.T) {
	store := newMemStore()
	store.seed("alice", "Heat")
	r := newTestRouter(store)

	if w := do(r, http.MethodPost, "/media/1/genres", `{"name":"Drama"}`, "bob-token"); w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/media/1/genres", `{"name":"Drama"}`, "alice-token"); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/media/1/genres", `{"name":"Western"}`, "admin-token"); w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 for unknown genre, got %d", w.Code)
	}
	if len(store.genres[1]) != 1 {
		t.Errorf("expected one linked genre, got %v", store.genres[1])
	}
}

func TestRecommendationsRequireSession(t *testing.T) {
	r := newTestRouter(newMemStore())

	if w := do(r, http.MethodGet, "/media/recommendations", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}
	w := do(r, http.MethodGet, "/media/recommendations", "", "bob-token")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "For bob") {
		t.Fatalf("Expected recommendations for bob, got %d %s", w.Code, w.Body.String())
	}
}

func TestMediaStoreFaultIsInternalError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection reset")
	r := newTestRouter(store)

	if w := do(r, http.MethodGet, "/media", "", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/media/1", "", "admin-token"); w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
}
