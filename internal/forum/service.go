// Package forum implements the post and comment domain: creation, listing,
// the atomic like toggle and embedded comment lifecycle.
package forum

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/authz"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/validation"
	"github.com/campuslink/campuslink-server/pkg/logger"
)

// UserSource resolves author summaries for populated responses. Satisfied by
// users.Repository.
type UserSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	IncPostsCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

// UniversitySource resolves university summaries. Satisfied by the catalog
// repository.
type UniversitySource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.University, error)
}

// Service wraps the post repository with validation, authorization and
// summary population.
type Service struct {
	repo  Repository
	users UserSource
	unis  UniversitySource
}

func NewService(repo Repository, users UserSource, unis UniversitySource) *Service {
	return &Service{repo: repo, users: users, unis: unis}
}

// CreateInput carries the client-supplied post fields. The author is always
// taken from the authenticated actor, never from the body.
type CreateInput struct {
	Title      string              `json:"title" validate:"required,min=1,max=200"`
	Content    string              `json:"content" validate:"required,min=1,max=20000"`
	Category   string              `json:"category" validate:"required"`
	Tags       []string            `json:"tags" validate:"max=10,dive,max=30"`
	Images     []models.PostImage  `json:"images" validate:"max=9"`
	University *primitive.ObjectID `json:"university"`
	Major      *primitive.ObjectID `json:"major"`
	Type       string              `json:"type"`
}

type UpdateInput struct {
	Title    *string             `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string             `json:"content" validate:"omitempty,min=1,max=20000"`
	Category *string             `json:"category"`
	Tags     *[]string           `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	Images   *[]models.PostImage `json:"images" validate:"omitempty,max=9"`
}

func validCategory(c string) bool {
	for _, v := range models.PostCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Create inserts a new post with zeroed counters, an empty likes set and no
// comments, then bumps the author's post counter.
func (s *Service) Create(ctx context.Context, authorID primitive.ObjectID, in CreateInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !validCategory(in.Category) {
		return nil, apperr.ValidationField("category", "unknown post category")
	}
	postType := in.Type
	if postType == "" {
		postType = models.PostTypeDiscussion
	}

	p := &models.Post{
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Author:   authorID,
		Category: in.Category,
		Tags:     in.Tags,
		Images:   in.Images,
		Type:     postType,
		Status:   "published",
		Likes:    []primitive.ObjectID{},
		Comments: []models.Comment{},
		Metadata: models.PostMetadata{AllowComments: true},
		IsActive: true,
	}
	if in.University != nil {
		p.University = *in.University
	}
	if in.Major != nil {
		p.Major = *in.Major
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, apperr.Internal("failed to create post", err)
	}
	if err := s.users.IncPostsCount(ctx, authorID, 1); err != nil {
		// the post exists either way; the per-user counter is advisory
		logger.Warnf("post %s created but author counter update failed: %v", p.ID.Hex(), err)
	}
	s.populate(ctx, p)
	return p, nil
}

// List returns active posts matching the query, with author and university
// summaries attached.
func (s *Service) List(ctx context.Context, p query.Params) ([]*models.Post, *query.Pagination, error) {
	posts, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, nil, apperr.Internal("failed to list posts", err)
	}
	for _, post := range posts {
		s.populate(ctx, post)
	}
	pg := p.Paginate(total)
	return posts, &pg, nil
}

// Get fetches one post. When countView is set the view counter is bumped
// best-effort; a failed bump never fails the read.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID, countView bool) (*models.Post, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load post", err)
	}
	if p == nil || !p.IsActive {
		return nil, apperr.NotFound("post not found")
	}
	if countView {
		if err := s.repo.IncViews(ctx, id); err != nil {
			logger.Warnf("view counter bump failed for post %s: %v", id.Hex(), err)
		} else {
			p.Stats.Views++
		}
	}
	s.populate(ctx, p)
	return p, nil
}

// Update applies the whitelisted fields after an ownership check.
func (s *Service) Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in UpdateInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Category != nil && !validCategory(*in.Category) {
		return nil, apperr.ValidationField("category", "unknown post category")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load post", err)
	}
	if p == nil || !p.IsActive {
		return nil, apperr.NotFound("post not found")
	}
	if err := authz.Authorize(actor, authz.ActionUpdate, authz.Owned(p.Author.Hex())); err != nil {
		return nil, err
	}
	upd, err := s.repo.Update(ctx, id, PostUpdate{
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		Tags:     in.Tags,
		Images:   in.Images,
	})
	if err != nil {
		return nil, apperr.Internal("failed to update post", err)
	}
	if upd == nil {
		return nil, apperr.NotFound("post not found")
	}
	s.populate(ctx, upd)
	return upd, nil
}

// Delete soft-deletes the post. Likes and comments stay in the document, so a
// restore brings them back untouched.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal("failed to load post", err)
	}
	if p == nil || !p.IsActive {
		return apperr.NotFound("post not found")
	}
	if err := authz.Authorize(actor, authz.ActionDelete, authz.Owned(p.Author.Hex())); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	if err := s.users.IncPostsCount(ctx, p.Author, -1); err != nil {
		logger.Warnf("post %s deleted but author counter update failed: %v", id.Hex(), err)
	}
	return nil
}

// LikeResult reports the outcome of a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// ToggleLike adds the user's like if absent, removes it if present. The
// membership change and the counter move in one repository operation.
func (s *Service) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*LikeResult, error) {
	p, liked, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		return nil, apperr.Internal("failed to toggle like", err)
	}
	return &LikeResult{Liked: liked, LikesCount: p.Stats.Likes}, nil
}

// AddComment appends a comment with a server-assigned id and timestamp.
// ParentID is stored as sent; it is not checked against existing comments.
func (s *Service) AddComment(ctx context.Context, postID, authorID primitive.ObjectID, content string, parentID *primitive.ObjectID) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.ValidationField("content", "comment content is required")
	}
	if len(content) > 2000 {
		return nil, apperr.ValidationField("content", "comment must be at most 2000 characters")
	}
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("failed to load post", err)
	}
	if p == nil || !p.IsActive {
		return nil, apperr.NotFound("post not found")
	}
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		Author:    authorID,
		Content:   content,
		ParentID:  parentID,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.PushComment(ctx, postID, c); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		return nil, apperr.Internal("failed to add comment", err)
	}
	if u, uerr := s.users.GetByID(ctx, authorID); uerr == nil && u != nil {
		c.AuthorInfo = &models.UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}
	return &c, nil
}

// DeleteComment soft-deletes a comment after checking the actor owns it (or
// is admin). Deleting the same comment twice returns not found the second
// time, so the counter never decrements twice.
func (s *Service) DeleteComment(ctx context.Context, actor *authz.Actor, postID, commentID primitive.ObjectID) error {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return apperr.Internal("failed to load post", err)
	}
	if p == nil {
		return apperr.NotFound("post not found")
	}
	var owner primitive.ObjectID
	found := false
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			owner = p.Comments[i].Author
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("comment not found")
	}
	if err := authz.Authorize(actor, authz.ActionDelete, authz.Owned(owner.Hex())); err != nil {
		return err
	}
	return s.repo.DeactivateComment(ctx, postID, commentID)
}

// populate attaches author and university summaries. Lookups are best-effort;
// a missing referent leaves the summary nil.
func (s *Service) populate(ctx context.Context, p *models.Post) {
	if u, err := s.users.GetByID(ctx, p.Author); err == nil && u != nil {
		p.AuthorInfo = &models.UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}
	for i := range p.Comments {
		if !p.Comments[i].IsActive {
			continue
		}
		if u, err := s.users.GetByID(ctx, p.Comments[i].Author); err == nil && u != nil {
			p.Comments[i].AuthorInfo = &models.UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
		}
	}
	if s.unis != nil && !p.University.IsZero() {
		if uni, err := s.unis.GetByID(ctx, p.University); err == nil && uni != nil {
			sum := uni.Summary()
			p.UniversityInfo = &sum
		}
	}
}
