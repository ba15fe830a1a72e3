package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
)

// MediaStore is an in-memory repositories.MediaRepository.
type MediaStore struct {
	mu        sync.Mutex
	assets    map[string]models.MediaAsset
	DeleteErr error
	Deleted   []string
}

var _ repositories.MediaRepository = (*MediaStore)(nil)

func NewMediaStore() *MediaStore {
	return &MediaStore{assets: make(map[string]models.MediaAsset)}
}

func (m *MediaStore) RegisterAsset(_ context.Context, asset *models.MediaAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[asset.StorageID]; ok {
		return errors.New("duplicate storage id")
	}
	m.assets[asset.StorageID] = *asset
	return nil
}

func (m *MediaStore) GetAsset(_ context.Context, storageID string) (*models.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[storageID]
	if !ok {
		return nil, repositories.ErrMediaNotFound
	}
	return &asset, nil
}

func (m *MediaStore) DeleteAsset(_ context.Context, storageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.assets, storageID)
	m.Deleted = append(m.Deleted, storageID)
	return nil
}

// Has reports whether storageID is still registered.
func (m *MediaStore) Has(storageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assets[storageID]
	return ok
}
