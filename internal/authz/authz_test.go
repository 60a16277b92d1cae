package authz

import (
	"testing"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_UnauthenticatedReadsPublicOnly(t *testing.T) {
	// public read allowed without a credential
	require.NoError(t, Authorize(nil, ActionRead, Public()))
	require.NoError(t, Authorize(&Actor{}, ActionRead, Owned("u1")))

	// any write denies with Unauthenticated, not Forbidden
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionSetStatus, ActionSetRole} {
		err := Authorize(nil, action, Public())
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	}

	// non-public read denies too
	err := Authorize(nil, ActionRead, AdminOnly())
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthorize_OwnershipMatrix(t *testing.T) {
	owner := &Actor{ID: "u1", Role: "user"}
	stranger := &Actor{ID: "u2", Role: "user"}
	admin := &Actor{ID: "u3", Role: "admin"}
	post := Owned("u1")

	for _, action := range []Action{ActionUpdate, ActionDelete, ActionSetStatus} {
		// a non-owner, non-admin actor is forbidden on another user's resource
		err := Authorize(stranger, action, post)
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

		// the same actor succeeds on their own resource
		assert.NoError(t, Authorize(owner, action, post))

		// an admin succeeds on anyone's resource
		assert.NoError(t, Authorize(admin, action, post))
	}
}

func TestAuthorize_AdminUnconditional(t *testing.T) {
	admin := &Actor{ID: "a1", Role: "admin"}
	for _, res := range []Resource{Public(), Owned("someone-else"), AdminOnly()} {
		for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionSetStatus, ActionSetRole} {
			assert.NoError(t, Authorize(admin, action, res))
		}
	}
}

func TestAuthorize_RoleChangeNeverGrantedByOwnership(t *testing.T) {
	self := &Actor{ID: "u1", Role: "user"}
	err := Authorize(self, ActionSetRole, Owned("u1"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAuthorize_AuthenticatedCreateAndRead(t *testing.T) {
	user := &Actor{ID: "u9", Role: "user"}

	// creating under a public collection (posts, comments) is open to any
	// authenticated user
	assert.NoError(t, Authorize(user, ActionCreate, Public()))

	// admin-only collections reject non-admin creates with Forbidden
	err := Authorize(user, ActionCreate, AdminOnly())
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// admin-only reads (user listing) reject plain users
	err = Authorize(user, ActionRead, AdminOnly())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
