package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
)

// MemoryRepository is an in-memory Repository used by unit and handler tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*models.User)}
}

func (m *MemoryRepository) Insert(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.Email == u.Email {
			return apperr.Duplicate("email", "email already in use")
		}
		if other.Username == u.Username {
			return apperr.Duplicate("username", "username already in use")
		}
	}
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.store[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == strings.ToLower(email) })
}

func (m *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *MemoryRepository) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	if upd.Username != nil {
		for _, other := range m.store {
			if other.ID != id && other.Username == *upd.Username {
				return nil, apperr.Duplicate("username", "username already in use")
			}
		}
		u.Username = *upd.Username
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Profile != nil {
		u.Profile = *upd.Profile
	}
	if upd.Preferences != nil {
		u.Preferences = *upd.Preferences
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m *MemoryRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	return m.mutate(id, func(u *models.User) { u.IsActive = active })
}

func (m *MemoryRepository) SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	return m.mutate(id, func(u *models.User) { u.Role = role })
}

func (m *MemoryRepository) mutate(id primitive.ObjectID, fn func(*models.User)) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m *MemoryRepository) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.store[id]; ok {
		u.LastLoginAt = at
	}
	return nil
}

func (m *MemoryRepository) IncPostsCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.store[id]; ok {
		u.Stats.PostsCount += delta
	}
	return nil
}

func (m *MemoryRepository) List(ctx context.Context, p query.Params) ([]*models.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, _ := p.Filters["role"].(string)
	needle := strings.ToLower(p.Search)

	var matched []*models.User
	for _, u := range m.store {
		if role != "" && u.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Username), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		cp := *u
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if p.SortOrder == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := int(p.Skip())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemoryRepository) Stats(ctx context.Context) (*StatsOverview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	out := &StatsOverview{}
	for _, u := range m.store {
		out.TotalUsers++
		if u.IsActive {
			out.ActiveUsers++
		}
		if u.Role == models.RoleAdmin {
			out.AdminUsers++
		}
		if !u.CreatedAt.Before(monthStart) {
			out.NewUsersThisMonth++
		}
	}
	return out, nil
}
