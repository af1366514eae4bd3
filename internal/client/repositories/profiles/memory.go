package profiles

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
)

// MemoryRepository keeps profiles in process memory. It enforces the same
// id and username uniqueness as the SQL table.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]models.Profile
	byUsername map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]models.Profile),
		byUsername: make(map[string]string),
	}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return nil, common.ErrConflict
	}
	if _, ok := r.byUsername[p.Username]; ok {
		return nil, common.ErrConflict
	}

	r.byID[p.ID] = *p
	r.byUsername[p.Username] = p.ID

	out := *p
	return &out, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[p.ID]
	if !ok {
		return common.ErrorNotFound
	}

	cur.DisplayName = p.DisplayName
	cur.Bio = p.Bio
	cur.AvatarURL = p.AvatarURL
	cur.UpdatedAt = p.UpdatedAt
	r.byID[p.ID] = cur
	return nil
}
