package forum

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/authz"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/users"
)

func newTestService(t *testing.T) (*Service, *MemoryRepository, *users.MemoryRepository) {
	t.Helper()
	posts := NewMemoryRepository()
	accounts := users.NewMemoryRepository()
	return NewService(posts, accounts, nil), posts, accounts
}

func seedUser(t *testing.T, repo *users.MemoryRepository, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    username + "@example.com",
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, repo.Insert(context.Background(), u))
	return u
}

func seedPost(t *testing.T, s *Service, authorID primitive.ObjectID) *models.Post {
	t.Helper()
	p, err := s.Create(context.Background(), authorID, CreateInput{
		Title:    "Dorm heating schedule",
		Content:  "Does anyone know when the heating turns on?",
		Category: "campus-life",
	})
	require.NoError(t, err)
	return p
}

func TestCreatePostDefaults(t *testing.T) {
	s, _, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")

	p := seedPost(t, s, author.ID)

	assert.Equal(t, author.ID, p.Author)
	assert.True(t, p.IsActive)
	assert.Equal(t, models.PostTypeDiscussion, p.Type)
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Comments)
	assert.Zero(t, p.Stats.Likes)
	assert.Zero(t, p.Stats.Comments)
	assert.Zero(t, p.Stats.Views)
	require.NotNil(t, p.AuthorInfo)
	assert.Equal(t, "poster", p.AuthorInfo.Username)

	refreshed, err := accounts.GetByID(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.Stats.PostsCount)
}

func TestCreatePostRejectsUnknownCategory(t *testing.T) {
	s, _, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")

	_, err := s.Create(context.Background(), author.ID, CreateInput{
		Title:    "t",
		Content:  "c",
		Category: "gossip",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestToggleLikeIsAnInvolution(t *testing.T) {
	s, repo, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	liker := seedUser(t, accounts, "liker")
	p := seedPost(t, s, author.ID)

	res, err := s.ToggleLike(context.Background(), p.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikesCount)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasLike(liker.ID))
	assert.Equal(t, len(stored.Likes), stored.Stats.Likes)

	res, err = s.ToggleLike(context.Background(), p.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.LikesCount)

	stored, err = repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasLike(liker.ID))
	assert.Empty(t, stored.Likes)
	assert.Equal(t, 0, stored.Stats.Likes)
}

func TestToggleLikeConcurrentUsers(t *testing.T) {
	s, repo, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	p := seedPost(t, s, author.ID)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ToggleLike(context.Background(), p.ID, primitive.NewObjectID())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Likes, n)
	assert.Equal(t, n, stored.Stats.Likes)
}

func TestToggleLikeMissingPost(t *testing.T) {
	s, _, accounts := newTestService(t)
	liker := seedUser(t, accounts, "liker")

	_, err := s.ToggleLike(context.Background(), primitive.NewObjectID(), liker.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAddCommentRejectsBlankContent(t *testing.T) {
	s, _, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	p := seedPost(t, s, author.ID)

	_, err := s.AddComment(context.Background(), p.ID, author.ID, "   \t ", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCommentLifecycleKeepsCounterInSync(t *testing.T) {
	s, repo, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	commenter := seedUser(t, accounts, "commenter")
	p := seedPost(t, s, author.ID)

	c1, err := s.AddComment(context.Background(), p.ID, commenter.ID, "first", nil)
	require.NoError(t, err)
	require.NotNil(t, c1.AuthorInfo)
	assert.Equal(t, "commenter", c1.AuthorInfo.Username)

	// reply referencing the first comment
	c2, err := s.AddComment(context.Background(), p.ID, author.ID, "second", &c1.ID)
	require.NoError(t, err)
	require.NotNil(t, c2.ParentID)
	assert.Equal(t, c1.ID, *c2.ParentID)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stats.Comments)
	assert.Equal(t, 2, stored.ActiveCommentCount())

	actor := &authz.Actor{ID: commenter.ID.Hex(), Role: models.RoleUser}
	require.NoError(t, s.DeleteComment(context.Background(), actor, p.ID, c1.ID))

	stored, err = repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stats.Comments)
	assert.Equal(t, 1, stored.ActiveCommentCount())
	// the comment document stays, flagged inactive
	assert.Len(t, stored.Comments, 2)

	// second delete of the same comment must not decrement again
	err = s.DeleteComment(context.Background(), actor, p.ID, c1.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	stored, err = repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stats.Comments)
}

func TestDeleteCommentRequiresOwnershipOrAdmin(t *testing.T) {
	s, _, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	commenter := seedUser(t, accounts, "commenter")
	stranger := seedUser(t, accounts, "stranger")
	p := seedPost(t, s, author.ID)

	c, err := s.AddComment(context.Background(), p.ID, commenter.ID, "mine", nil)
	require.NoError(t, err)

	err = s.DeleteComment(context.Background(), &authz.Actor{ID: stranger.ID.Hex(), Role: models.RoleUser}, p.ID, c.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	admin := &authz.Actor{ID: stranger.ID.Hex(), Role: models.RoleAdmin}
	require.NoError(t, s.DeleteComment(context.Background(), admin, p.ID, c.ID))
}

func TestUpdatePostWhitelistAndOwnership(t *testing.T) {
	s, repo, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	stranger := seedUser(t, accounts, "stranger")
	p := seedPost(t, s, author.ID)

	title := "Updated title"
	_, err := s.Update(context.Background(), &authz.Actor{ID: stranger.ID.Hex(), Role: models.RoleUser}, p.ID, UpdateInput{Title: &title})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	upd, err := s.Update(context.Background(), &authz.Actor{ID: author.ID.Hex(), Role: models.RoleUser}, p.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Updated title", upd.Title)
	assert.Equal(t, p.Content, upd.Content)
	assert.Equal(t, author.ID, upd.Author)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated title", stored.Title)
}

func TestSoftDeleteHidesPostAndKeepsDocument(t *testing.T) {
	s, repo, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	liker := seedUser(t, accounts, "liker")
	p := seedPost(t, s, author.ID)

	_, err := s.ToggleLike(context.Background(), p.ID, liker.ID)
	require.NoError(t, err)

	actor := &authz.Actor{ID: author.ID.Hex(), Role: models.RoleUser}
	require.NoError(t, s.Delete(context.Background(), actor, p.ID))

	_, err = s.Get(context.Background(), p.ID, false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	posts, pg, err := s.List(context.Background(), query.Parse(nil))
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int64(0), pg.Total)

	// likes survive the soft delete untouched
	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Len(t, stored.Likes, 1)
	assert.Equal(t, 1, stored.Stats.Likes)

	refreshed, err := accounts.GetByID(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed.Stats.PostsCount)
}

func TestGetCountsViews(t *testing.T) {
	s, _, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")
	p := seedPost(t, s, author.ID)

	got, err := s.Get(context.Background(), p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stats.Views)

	got, err = s.Get(context.Background(), p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stats.Views)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s, _, accounts := newTestService(t)
	author := seedUser(t, accounts, "poster")

	for i := 0; i < 12; i++ {
		cat := "campus-life"
		if i%2 == 0 {
			cat = "career"
		}
		_, err := s.Create(context.Background(), author.ID, CreateInput{
			Title:    "post",
			Content:  "content",
			Category: cat,
		})
		require.NoError(t, err)
	}

	p := query.Parse(nil).Equals("category", "career")
	p.Limit = 4
	posts, pg, err := s.List(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, posts, 4)
	assert.Equal(t, int64(6), pg.Total)
	assert.Equal(t, 2, pg.Pages)
}
