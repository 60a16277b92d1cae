package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousReadsPublicProfile(t *testing.T) {
	s := newTestServer(t)
	tok := s.register(t, "alice", "alice@example.com", "password123")
	u, err := s.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	path := "/api/users/" + u.ID.Hex()

	// no token: the public view, email stripped
	code, env := s.do(t, "GET", path, "", nil)
	require.Equal(t, http.StatusOK, code)
	profile := env.Data.(map[string]interface{})
	assert.Equal(t, "alice", profile["username"])
	assert.NotContains(t, profile, "email")

	// another account sees the same public view
	bob := s.register(t, "bob", "bob@example.com", "password123")
	code, env = s.do(t, "GET", path, bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, env.Data.(map[string]interface{}), "email")

	// the owner gets the full record
	code, env = s.do(t, "GET", path, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice@example.com", env.Data.(map[string]interface{})["email"])

	// a bad token is rejected, not downgraded to anonymous
	code, _ = s.do(t, "GET", path, "bogus-token", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}
