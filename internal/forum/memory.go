package forum

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

// MemoryRepository is an in-memory Repository used by tests. The single lock
// gives the same effective atomicity the Mongo implementation gets from
// conditional single-document updates.
type MemoryRepository struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*models.Post
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (r *MemoryRepository) Insert(ctx context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) List(ctx context.Context, p query.Params) ([]*models.Post, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Post
	for _, post := range r.posts {
		if !post.IsActive {
			continue
		}
		if v, ok := p.Filters["category"].(string); ok && post.Category != v {
			continue
		}
		if v, ok := p.Filters["author"]; ok {
			id, _ := v.(primitive.ObjectID)
			if post.Author != id {
				continue
			}
		}
		if p.Search != "" {
			s := strings.ToLower(p.Search)
			if !strings.Contains(strings.ToLower(post.Title), s) &&
				!strings.Contains(strings.ToLower(post.Content), s) {
				continue
			}
		}
		cp := *post
		matched = append(matched, &cp)
	}

	asc := p.SortOrder == "asc"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch p.SortBy {
		case "title":
			less = a.Title < b.Title
		case "stats.likes":
			less = a.Stats.Likes < b.Stats.Likes
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if asc {
			return less
		}
		return !less
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

func (r *MemoryRepository) Update(ctx context.Context, id primitive.ObjectID, upd PostUpdate) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.Tags != nil {
		p.Tags = *upd.Tags
	}
	if upd.Images != nil {
		p.Images = *upd.Images
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return apperr.NotFound("post not found")
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, false, apperr.NotFound("post not found")
	}
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			p.Stats.Likes--
			cp := *p
			return &cp, false, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	p.Stats.Likes++
	cp := *p
	return &cp, true, nil
}

func (r *MemoryRepository) PushComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return apperr.NotFound("post not found")
	}
	p.Comments = append(p.Comments, c)
	p.Stats.Comments++
	return nil
}

func (r *MemoryRepository) DeactivateComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return apperr.NotFound("comment not found")
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID && p.Comments[i].IsActive {
			p.Comments[i].IsActive = false
			p.Stats.Comments--
			return nil
		}
	}
	return apperr.NotFound("comment not found")
}

func (r *MemoryRepository) IncViews(ctx context.Context, postID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok {
		p.Stats.Views++
	}
	return nil
}
