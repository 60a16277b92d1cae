package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
)

// MemoryUniversityRepository is an in-memory UniversityRepository for tests.
type MemoryUniversityRepository struct {
	mu   sync.RWMutex
	unis map[primitive.ObjectID]*models.University
}

func NewMemoryUniversityRepository() *MemoryUniversityRepository {
	return &MemoryUniversityRepository{unis: make(map[primitive.ObjectID]*models.University)}
}

func (r *MemoryUniversityRepository) Insert(ctx context.Context, u *models.University) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.unis {
		if existing.Name == u.Name {
			return apperr.Duplicate("name", "university name already exists")
		}
	}
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.unis[u.ID] = &cp
	return nil
}

func (r *MemoryUniversityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.University, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.unis[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUniversityRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.University, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.University
	for _, id := range ids {
		if u, ok := r.unis[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryUniversityRepository) List(ctx context.Context, p query.Params) ([]*models.University, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*models.University
	for _, u := range r.unis {
		if !u.IsActive {
			continue
		}
		if v, ok := p.Filters["type"].(string); ok && u.Type != v {
			continue
		}
		if v, ok := p.Filters["level"].(string); ok && u.Level != v {
			continue
		}
		if v, ok := p.Filters["location.province"].(string); ok && u.Location.Province != v {
			continue
		}
		if v, ok := p.Filters["location.city"].(string); ok && u.Location.City != v {
			continue
		}
		if p.Search != "" {
			s := strings.ToLower(p.Search)
			if !strings.Contains(strings.ToLower(u.Name), s) &&
				!strings.Contains(strings.ToLower(u.EnglishName), s) {
				continue
			}
		}
		cp := *u
		matched = append(matched, &cp)
	}
	asc := p.SortOrder == "asc"
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch p.SortBy {
		case "name":
			less = matched[i].Name < matched[j].Name
		case "rating.overall":
			less = matched[i].Rating.Overall < matched[j].Rating.Overall
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
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

func (r *MemoryUniversityRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.University, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unis[id]
	if !ok {
		return nil, nil
	}
	applyUniversitySet(u, set)
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

// applyUniversitySet mirrors the $set fields the service actually produces.
func applyUniversitySet(u *models.University, set bson.M) {
	for k, v := range set {
		switch k {
		case "name":
			u.Name = v.(string)
		case "englishName":
			u.EnglishName = v.(string)
		case "logo":
			u.Logo = v.(string)
		case "description":
			u.Description = v.(string)
		case "location":
			u.Location = v.(models.UniversityLocation)
		case "type":
			u.Type = v.(string)
		case "level":
			u.Level = v.(string)
		case "establishedYear":
			u.EstablishedYear = v.(int)
		case "website":
			u.Website = v.(string)
		case "phoneNumber":
			u.PhoneNumber = v.(string)
		case "email":
			u.Email = v.(string)
		case "stats":
			u.Stats = v.(models.UniversityStats)
		case "tuition":
			u.Tuition = v.(models.UniversityTuition)
		case "ranking":
			u.Ranking = v.(models.UniversityRanking)
		}
	}
}

func (r *MemoryUniversityRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unis[id]
	if !ok {
		return apperr.NotFound("university not found")
	}
	u.IsActive = active
	return nil
}

func (r *MemoryUniversityRepository) AddMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unis[uniID]
	if !ok {
		return apperr.NotFound("university not found")
	}
	if !u.HasMajor(majorID) {
		u.Majors = append(u.Majors, majorID)
	}
	return nil
}

func (r *MemoryUniversityRepository) RemoveMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unis[uniID]
	if !ok {
		return apperr.NotFound("university not found")
	}
	for i, id := range u.Majors {
		if id == majorID {
			u.Majors = append(u.Majors[:i], u.Majors[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUniversityRepository) Overview(ctx context.Context) (*UniversityOverview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ov := &UniversityOverview{
		ByType:     map[string]int64{},
		ByLevel:    map[string]int64{},
		ByProvince: map[string]int64{},
	}
	for _, u := range r.unis {
		ov.Total++
		if !u.IsActive {
			continue
		}
		ov.Active++
		if u.Type != "" {
			ov.ByType[u.Type]++
		}
		if u.Level != "" {
			ov.ByLevel[u.Level]++
		}
		if u.Location.Province != "" {
			ov.ByProvince[u.Location.Province]++
		}
	}
	return ov, nil
}

// MemoryMajorRepository is an in-memory MajorRepository for tests.
type MemoryMajorRepository struct {
	mu     sync.RWMutex
	majors map[primitive.ObjectID]*models.Major
}

func NewMemoryMajorRepository() *MemoryMajorRepository {
	return &MemoryMajorRepository{majors: make(map[primitive.ObjectID]*models.Major)}
}

func (r *MemoryMajorRepository) Insert(ctx context.Context, m *models.Major) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.majors {
		if existing.Name == m.Name {
			return apperr.Duplicate("name", "major name already exists")
		}
	}
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	cp := *m
	r.majors[m.ID] = &cp
	return nil
}

func (r *MemoryMajorRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Major, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.majors[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *MemoryMajorRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.Major, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Major
	for _, id := range ids {
		if m, ok := r.majors[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryMajorRepository) List(ctx context.Context, p query.Params) ([]*models.Major, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*models.Major
	for _, m := range r.majors {
		if !m.IsActive {
			continue
		}
		if v, ok := p.Filters["category"].(string); ok && m.Category != v {
			continue
		}
		if v, ok := p.Filters["degreeLevel"].(string); ok && m.DegreeLevel != v {
			continue
		}
		if p.Search != "" {
			s := strings.ToLower(p.Search)
			if !strings.Contains(strings.ToLower(m.Name), s) &&
				!strings.Contains(strings.ToLower(m.EnglishName), s) {
				continue
			}
		}
		cp := *m
		matched = append(matched, &cp)
	}
	asc := p.SortOrder == "asc"
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		if p.SortBy == "name" {
			less = matched[i].Name < matched[j].Name
		} else {
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
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

func (r *MemoryMajorRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Major, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.majors[id]
	if !ok {
		return nil, nil
	}
	applyMajorSet(m, set)
	m.UpdatedAt = time.Now().UTC()
	cp := *m
	return &cp, nil
}

func applyMajorSet(m *models.Major, set bson.M) {
	for k, v := range set {
		switch k {
		case "name":
			m.Name = v.(string)
		case "englishName":
			m.EnglishName = v.(string)
		case "code":
			m.Code = v.(string)
		case "category":
			m.Category = v.(string)
		case "subcategory":
			m.Subcategory = v.(string)
		case "degreeLevel":
			m.DegreeLevel = v.(string)
		case "duration":
			m.Duration = v.(int)
		case "description":
			m.Description = v.(string)
		case "overview":
			m.Overview = v.(string)
		case "curriculum":
			m.Curriculum = v.(models.MajorCurriculum)
		case "career":
			m.Career = v.(models.MajorCareer)
		case "tags":
			m.Tags = v.([]string)
		}
	}
}

func (r *MemoryMajorRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.majors[id]
	if !ok {
		return apperr.NotFound("major not found")
	}
	m.IsActive = active
	return nil
}

func (r *MemoryMajorRepository) AddUniversity(ctx context.Context, majorID, uniID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.majors[majorID]
	if !ok {
		return apperr.NotFound("major not found")
	}
	if !m.HasUniversity(uniID) {
		m.Universities = append(m.Universities, uniID)
	}
	return nil
}

func (r *MemoryMajorRepository) RemoveUniversity(ctx context.Context, majorID, uniID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.majors[majorID]
	if !ok {
		return apperr.NotFound("major not found")
	}
	for i, id := range m.Universities {
		if id == uniID {
			m.Universities = append(m.Universities[:i], m.Universities[i+1:]...)
			break
		}
	}
	return nil
}
