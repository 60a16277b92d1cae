// Package catalog manages the university and major reference data, including
// the bidirectional association between the two collections.
package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/validation"
	"github.com/campuslink/campuslink-server/pkg/logger"
)

// Service exposes catalog reads to everyone and mutations to admins (enforced
// at the route layer; the service assumes the caller already authorized).
type Service struct {
	unis   UniversityRepository
	majors MajorRepository
}

func NewService(unis UniversityRepository, majors MajorRepository) *Service {
	return &Service{unis: unis, majors: majors}
}

func inEnum(v string, enum []string) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}

// UniversityInput carries the admin-editable university fields. On update,
// nil pointers leave the stored value untouched.
type UniversityInput struct {
	Name            *string                    `json:"name" validate:"omitempty,min=1,max=200"`
	EnglishName     *string                    `json:"englishName" validate:"omitempty,max=200"`
	Logo            *string                    `json:"logo"`
	Description     *string                    `json:"description" validate:"omitempty,max=5000"`
	Location        *models.UniversityLocation `json:"location"`
	Type            *string                    `json:"type"`
	Level           *string                    `json:"level"`
	EstablishedYear *int                       `json:"establishedYear" validate:"omitempty,min=1000,max=2100"`
	Website         *string                    `json:"website" validate:"omitempty,max=500"`
	PhoneNumber     *string                    `json:"phoneNumber" validate:"omitempty,max=50"`
	Email           *string                    `json:"email" validate:"omitempty,email"`
	Stats           *models.UniversityStats    `json:"stats"`
	Tuition         *models.UniversityTuition  `json:"tuition"`
	Ranking         *models.UniversityRanking  `json:"ranking"`
}

func (in UniversityInput) set() bson.M {
	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.EnglishName != nil {
		set["englishName"] = *in.EnglishName
	}
	if in.Logo != nil {
		set["logo"] = *in.Logo
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Location != nil {
		set["location"] = *in.Location
	}
	if in.Type != nil {
		set["type"] = *in.Type
	}
	if in.Level != nil {
		set["level"] = *in.Level
	}
	if in.EstablishedYear != nil {
		set["establishedYear"] = *in.EstablishedYear
	}
	if in.Website != nil {
		set["website"] = *in.Website
	}
	if in.PhoneNumber != nil {
		set["phoneNumber"] = *in.PhoneNumber
	}
	if in.Email != nil {
		set["email"] = *in.Email
	}
	if in.Stats != nil {
		set["stats"] = *in.Stats
	}
	if in.Tuition != nil {
		set["tuition"] = *in.Tuition
	}
	if in.Ranking != nil {
		set["ranking"] = *in.Ranking
	}
	return set
}

func (in UniversityInput) check() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Type != nil && !inEnum(*in.Type, models.UniversityTypes) {
		return apperr.ValidationField("type", "unknown university type")
	}
	if in.Level != nil && !inEnum(*in.Level, models.UniversityLevels) {
		return apperr.ValidationField("level", "unknown university level")
	}
	return nil
}

// CreateUniversity inserts a new record with an empty majors list.
func (s *Service) CreateUniversity(ctx context.Context, createdBy primitive.ObjectID, in UniversityInput) (*models.University, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, apperr.ValidationField("name", "university name is required")
	}
	if in.Description == nil || *in.Description == "" {
		return nil, apperr.ValidationField("description", "description is required")
	}
	if in.Type == nil || in.Level == nil {
		return nil, apperr.Validation("type and level are required")
	}
	if in.Location == nil || in.Location.Province == "" || in.Location.City == "" {
		return nil, apperr.ValidationField("location", "province and city are required")
	}
	if err := in.check(); err != nil {
		return nil, err
	}

	u := &models.University{
		Name:        *in.Name,
		Description: *in.Description,
		Location:    *in.Location,
		Type:        *in.Type,
		Level:       *in.Level,
		Majors:      []primitive.ObjectID{},
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	if in.EnglishName != nil {
		u.EnglishName = *in.EnglishName
	}
	if in.Logo != nil {
		u.Logo = *in.Logo
	}
	if in.EstablishedYear != nil {
		u.EstablishedYear = *in.EstablishedYear
	}
	if in.Website != nil {
		u.Website = *in.Website
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = *in.PhoneNumber
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Stats != nil {
		u.Stats = *in.Stats
	}
	if in.Tuition != nil {
		u.Tuition = *in.Tuition
	}
	if in.Ranking != nil {
		u.Ranking = *in.Ranking
	}
	if err := s.unis.Insert(ctx, u); err != nil {
		if apperr.KindOf(err) == apperr.KindDuplicate {
			return nil, err
		}
		return nil, apperr.Internal("failed to create university", err)
	}
	return u, nil
}

// ListUniversities returns active records with major summaries populated.
func (s *Service) ListUniversities(ctx context.Context, p query.Params) ([]*models.University, *query.Pagination, error) {
	list, total, err := s.unis.List(ctx, p)
	if err != nil {
		return nil, nil, apperr.Internal("failed to list universities", err)
	}
	for _, u := range list {
		s.populateUniversity(ctx, u)
	}
	pg := p.Paginate(total)
	return list, &pg, nil
}

// GetUniversity fetches one active record with its major summaries.
func (s *Service) GetUniversity(ctx context.Context, id primitive.ObjectID) (*models.University, error) {
	u, err := s.unis.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load university", err)
	}
	if u == nil || !u.IsActive {
		return nil, apperr.NotFound("university not found")
	}
	s.populateUniversity(ctx, u)
	return u, nil
}

// UpdateUniversity applies the non-nil fields.
func (s *Service) UpdateUniversity(ctx context.Context, id primitive.ObjectID, in UniversityInput) (*models.University, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	set := in.set()
	if len(set) == 0 {
		return nil, apperr.Validation("no fields to update")
	}
	u, err := s.unis.Update(ctx, id, set)
	if err != nil {
		return nil, apperr.Internal("failed to update university", err)
	}
	if u == nil {
		return nil, apperr.NotFound("university not found")
	}
	s.populateUniversity(ctx, u)
	return u, nil
}

// DeleteUniversity soft-deletes; major back-references are left in place so a
// restore does not need to rebuild them.
func (s *Service) DeleteUniversity(ctx context.Context, id primitive.ObjectID) error {
	return s.unis.SetActive(ctx, id, false)
}

// UniversityOverviewStats aggregates catalog counts for the admin dashboard.
func (s *Service) UniversityOverviewStats(ctx context.Context) (*UniversityOverview, error) {
	ov, err := s.unis.Overview(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to aggregate university stats", err)
	}
	return ov, nil
}

// MajorInput mirrors UniversityInput for the major collection.
type MajorInput struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=200"`
	EnglishName *string                 `json:"englishName" validate:"omitempty,max=200"`
	Code        *string                 `json:"code" validate:"omitempty,max=20"`
	Category    *string                 `json:"category"`
	Subcategory *string                 `json:"subcategory" validate:"omitempty,max=100"`
	DegreeLevel *string                 `json:"degreeLevel"`
	Duration    *int                    `json:"duration" validate:"omitempty,min=1,max=8"`
	Description *string                 `json:"description" validate:"omitempty,max=5000"`
	Overview    *string                 `json:"overview" validate:"omitempty,max=10000"`
	Curriculum  *models.MajorCurriculum `json:"curriculum"`
	Career      *models.MajorCareer     `json:"career"`
	Tags        *[]string               `json:"tags" validate:"omitempty,max=20,dive,max=30"`
}

func (in MajorInput) set() bson.M {
	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.EnglishName != nil {
		set["englishName"] = *in.EnglishName
	}
	if in.Code != nil {
		set["code"] = *in.Code
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.Subcategory != nil {
		set["subcategory"] = *in.Subcategory
	}
	if in.DegreeLevel != nil {
		set["degreeLevel"] = *in.DegreeLevel
	}
	if in.Duration != nil {
		set["duration"] = *in.Duration
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Overview != nil {
		set["overview"] = *in.Overview
	}
	if in.Curriculum != nil {
		set["curriculum"] = *in.Curriculum
	}
	if in.Career != nil {
		set["career"] = *in.Career
	}
	if in.Tags != nil {
		set["tags"] = *in.Tags
	}
	return set
}

func (in MajorInput) check() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Category != nil && !inEnum(*in.Category, models.MajorCategories) {
		return apperr.ValidationField("category", "unknown major category")
	}
	if in.DegreeLevel != nil && !inEnum(*in.DegreeLevel, models.MajorDegreeLevels) {
		return apperr.ValidationField("degreeLevel", "unknown degree level")
	}
	return nil
}

// CreateMajor inserts a new record with an empty universities list.
func (s *Service) CreateMajor(ctx context.Context, createdBy primitive.ObjectID, in MajorInput) (*models.Major, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, apperr.ValidationField("name", "major name is required")
	}
	if in.Description == nil || *in.Description == "" {
		return nil, apperr.ValidationField("description", "description is required")
	}
	if in.Category == nil || in.DegreeLevel == nil {
		return nil, apperr.Validation("category and degreeLevel are required")
	}
	if err := in.check(); err != nil {
		return nil, err
	}

	m := &models.Major{
		Name:         *in.Name,
		Category:     *in.Category,
		DegreeLevel:  *in.DegreeLevel,
		Duration:     4,
		Description:  *in.Description,
		Universities: []primitive.ObjectID{},
		IsActive:     true,
		CreatedBy:    createdBy,
	}
	if in.EnglishName != nil {
		m.EnglishName = *in.EnglishName
	}
	if in.Code != nil {
		m.Code = *in.Code
	}
	if in.Subcategory != nil {
		m.Subcategory = *in.Subcategory
	}
	if in.Duration != nil {
		m.Duration = *in.Duration
	}
	if in.Overview != nil {
		m.Overview = *in.Overview
	}
	if in.Curriculum != nil {
		m.Curriculum = *in.Curriculum
	}
	if in.Career != nil {
		m.Career = *in.Career
	}
	if in.Tags != nil {
		m.Tags = *in.Tags
	}
	if err := s.majors.Insert(ctx, m); err != nil {
		if apperr.KindOf(err) == apperr.KindDuplicate {
			return nil, err
		}
		return nil, apperr.Internal("failed to create major", err)
	}
	return m, nil
}

// ListMajors returns active records with university summaries populated.
func (s *Service) ListMajors(ctx context.Context, p query.Params) ([]*models.Major, *query.Pagination, error) {
	list, total, err := s.majors.List(ctx, p)
	if err != nil {
		return nil, nil, apperr.Internal("failed to list majors", err)
	}
	for _, m := range list {
		s.populateMajor(ctx, m)
	}
	pg := p.Paginate(total)
	return list, &pg, nil
}

// GetMajor fetches one active record with its university summaries.
func (s *Service) GetMajor(ctx context.Context, id primitive.ObjectID) (*models.Major, error) {
	m, err := s.majors.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load major", err)
	}
	if m == nil || !m.IsActive {
		return nil, apperr.NotFound("major not found")
	}
	s.populateMajor(ctx, m)
	return m, nil
}

// UpdateMajor applies the non-nil fields.
func (s *Service) UpdateMajor(ctx context.Context, id primitive.ObjectID, in MajorInput) (*models.Major, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	set := in.set()
	if len(set) == 0 {
		return nil, apperr.Validation("no fields to update")
	}
	m, err := s.majors.Update(ctx, id, set)
	if err != nil {
		return nil, apperr.Internal("failed to update major", err)
	}
	if m == nil {
		return nil, apperr.NotFound("major not found")
	}
	s.populateMajor(ctx, m)
	return m, nil
}

// DeleteMajor soft-deletes the major.
func (s *Service) DeleteMajor(ctx context.Context, id primitive.ObjectID) error {
	return s.majors.SetActive(ctx, id, false)
}

// LinkMajor records the association on both sides. There is no multi-document
// transaction here: the university side is written first, and a failure on the
// major side rolls the first write back so no one-sided link survives.
func (s *Service) LinkMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error {
	u, err := s.unis.GetByID(ctx, uniID)
	if err != nil {
		return apperr.Internal("failed to load university", err)
	}
	if u == nil || !u.IsActive {
		return apperr.NotFound("university not found")
	}
	m, err := s.majors.GetByID(ctx, majorID)
	if err != nil {
		return apperr.Internal("failed to load major", err)
	}
	if m == nil || !m.IsActive {
		return apperr.NotFound("major not found")
	}
	if u.HasMajor(majorID) {
		return apperr.Validation("major is already linked to this university")
	}

	if err := s.unis.AddMajor(ctx, uniID, majorID); err != nil {
		return apperr.Internal("failed to link major", err)
	}
	if err := s.majors.AddUniversity(ctx, majorID, uniID); err != nil {
		if rbErr := s.unis.RemoveMajor(ctx, uniID, majorID); rbErr != nil {
			logger.Errorf("link rollback failed, university %s still references major %s: %v",
				uniID.Hex(), majorID.Hex(), rbErr)
		}
		return apperr.Internal("failed to link major", err)
	}
	return nil
}

// UnlinkMajor removes the association from both sides with the same
// compensation scheme as LinkMajor.
func (s *Service) UnlinkMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error {
	u, err := s.unis.GetByID(ctx, uniID)
	if err != nil {
		return apperr.Internal("failed to load university", err)
	}
	if u == nil || !u.IsActive {
		return apperr.NotFound("university not found")
	}
	if !u.HasMajor(majorID) {
		return apperr.Validation("major is not linked to this university")
	}

	if err := s.unis.RemoveMajor(ctx, uniID, majorID); err != nil {
		return apperr.Internal("failed to unlink major", err)
	}
	if err := s.majors.RemoveUniversity(ctx, majorID, uniID); err != nil {
		if rbErr := s.unis.AddMajor(ctx, uniID, majorID); rbErr != nil {
			logger.Errorf("unlink rollback failed, university %s lost its reference to major %s: %v",
				uniID.Hex(), majorID.Hex(), rbErr)
		}
		return apperr.Internal("failed to unlink major", err)
	}
	return nil
}

func (s *Service) populateUniversity(ctx context.Context, u *models.University) {
	if len(u.Majors) == 0 {
		return
	}
	majors, err := s.majors.GetMany(ctx, u.Majors)
	if err != nil {
		logger.Warnf("major summaries unavailable for university %s: %v", u.ID.Hex(), err)
		return
	}
	u.MajorInfos = make([]models.MajorSummary, 0, len(majors))
	for _, m := range majors {
		if m.IsActive {
			u.MajorInfos = append(u.MajorInfos, m.Summary())
		}
	}
}

func (s *Service) populateMajor(ctx context.Context, m *models.Major) {
	if len(m.Universities) == 0 {
		return
	}
	unis, err := s.unis.GetMany(ctx, m.Universities)
	if err != nil {
		logger.Warnf("university summaries unavailable for major %s: %v", m.ID.Hex(), err)
		return
	}
	m.UniversityInfos = make([]models.UniversitySummary, 0, len(unis))
	for _, u := range unis {
		if u.IsActive {
			m.UniversityInfos = append(m.UniversityInfos, u.Summary())
		}
	}
}
