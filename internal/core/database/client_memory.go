package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/models"
)

var _ core.DbClient = (*MemoryClient)(nil)

// MemoryClient keeps users and documents in process. Contents are lost on
// restart.
type MemoryClient struct {
	mu      sync.RWMutex
	nextUID int64
	nextDID int64
	users   map[int64]models.User
	byName  map[string]int64
	docs    map[int64]models.Document
	paths   map[string]int64
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		users:  make(map[int64]models.User),
		byName: make(map[string]int64),
		docs:   make(map[int64]models.Document),
		paths:  make(map[string]int64),
	}
}

func (m *MemoryClient) CreateUser(_ context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[user.Username]; ok {
		return fmt.Errorf("%w: %s", core.ErrUserExists, user.Username)
	}
	m.nextUID++
	user.ID = m.nextUID
	m.users[user.ID] = *user
	m.byName[user.Username] = user.ID
	return nil
}

func (m *MemoryClient) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryClient) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryClient) CreateDocument(_ context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[doc.UserID]; !ok {
		return fmt.Errorf("document owner %d does not exist", doc.UserID)
	}
	if _, ok := m.paths[doc.FilePath]; ok {
		return fmt.Errorf("duplicate file_path %q", doc.FilePath)
	}
	m.nextDID++
	doc.ID = m.nextDID
	m.docs[doc.ID] = *doc
	m.paths[doc.FilePath] = doc.ID
	return nil
}

func (m *MemoryClient) GetDocumentByID(_ context.Context, id int64) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *MemoryClient) ListDocumentsByUser(_ context.Context, userID int64) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Document{}
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryClient) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %d", core.ErrNotFound, id)
	}
	delete(m.docs, id)
	delete(m.paths, d.FilePath)
	return nil
}

func (m *MemoryClient) DocumentPathExists(_ context.Context, filePath string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.paths[filePath]
	return ok, nil
}

func (m *MemoryClient) Close() error { return nil }
