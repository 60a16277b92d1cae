package users

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository())
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email, "emails are stored lowercased")
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "hunter22", u.PasswordHash, "password must be hashed")

	got, err := svc.Authenticate(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "hunter22")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestRegister_DuplicateEmailNamesEmailField(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "secret1"})
	require.NoError(t, err)

	// both username and email collide: the error must name the email field
	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "secret1"})
	require.Error(t, err)
	ae := apperr.As(err)
	assert.Equal(t, apperr.KindDuplicate, ae.Kind)
	assert.Equal(t, "email", ae.Field)

	// only the username collides
	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob2@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "username", apperr.As(err).Field)
}

func TestAuthenticate_DisabledAccountIsDistinct(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, u.ID, false)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "carol@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccountDisabled, apperr.KindOf(err),
		"a valid credential for a disabled account must not look like a bad password")
}

func TestChangePassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: "oldpass"})
	require.NoError(t, err)

	// wrong current password rejected as validation, caller stays logged in
	err = svc.ChangePassword(ctx, u.ID, "nope", "newpass1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// too-short new password rejected
	err = svc.ChangePassword(ctx, u.ID, "oldpass", "abc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "oldpass", "newpass1"))

	_, err = svc.Authenticate(ctx, "dave@example.com", "oldpass")
	require.Error(t, err)
	_, err = svc.Authenticate(ctx, "dave@example.com", "newpass1")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "erin", Email: "erin@example.com", Password: "secret1"})
	require.NoError(t, err)

	bio := models.UserProfile{Bio: "cs undergrad", University: "State U"}
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Profile: &bio})
	require.NoError(t, err)
	assert.Equal(t, "cs undergrad", updated.Profile.Bio)
	assert.Equal(t, "erin", updated.Username, "unset fields stay untouched")
}

func TestSetRole(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "frank", Email: "frank@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, u.ID, "superuser")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	promoted, err := svc.SetRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
}

func TestList_FilterAndPaginate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, in := range []RegisterInput{
		{Username: "grace", Email: "grace@example.com", Password: "secret1"},
		{Username: "heidi", Email: "heidi@example.com", Password: "secret1"},
		{Username: "ivan", Email: "ivan@example.com", Password: "secret1"},
	} {
		_, err := svc.Register(ctx, in)
		require.NoError(t, err)
	}

	p := query.Parse(url.Values{"search": {"GRACE"}})
	got, total, err := svc.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "grace", got[0].Username)

	p = query.Parse(url.Values{"limit": {"2"}})
	got, total, err = svc.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, p.Pages(total))
}

func TestStatsOverview(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Username: "judy", Email: "judy@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "mallory", Email: "mallory@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, a.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.SetActive(ctx, a.ID, false)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.AdminUsers)
}
