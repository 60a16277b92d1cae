package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUniversity(t *testing.T, s *testServer, admin, name string) string {
	t.Helper()
	code, env := s.do(t, "POST", "/api/universities", admin, map[string]interface{}{
		"name":        name,
		"description": "a fine institution",
		"type":        "comprehensive",
		"level":       "project-985",
		"location":    map[string]string{"province": "Beijing", "city": "Beijing"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return env.Data.(map[string]interface{})["id"].(string)
}

func createMajor(t *testing.T, s *testServer, admin, name string) string {
	t.Helper()
	code, env := s.do(t, "POST", "/api/majors", admin, map[string]interface{}{
		"name":        name,
		"description": "a demanding field",
		"category":    "engineering",
		"degreeLevel": "bachelor",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return env.Data.(map[string]interface{})["id"].(string)
}

func TestCatalogMutationsAreAdminOnly(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "alice", "alice@example.com", "password123")

	code, _ := s.do(t, "POST", "/api/universities", user, map[string]interface{}{
		"name": "Rogue University",
	})
	require.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, "POST", "/api/universities", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestCatalogReadsArePublic(t *testing.T) {
	s := newTestServer(t)
	admin := s.registerAdmin(t, "root", "root@example.com")
	uniID := createUniversity(t, s, admin, "Tsinghua University")

	code, env := s.do(t, "GET", "/api/universities", "", nil)
	require.Equal(t, http.StatusOK, code)
	items := dataField(t, env, "items").([]interface{})
	require.Len(t, items, 1)

	code, env = s.do(t, "GET", "/api/universities/"+uniID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Tsinghua University", dataField(t, env, "name"))
}

func TestLinkAndUnlinkMajorEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.registerAdmin(t, "root", "root@example.com")
	uniID := createUniversity(t, s, admin, "Peking University")
	majorID := createMajor(t, s, admin, "Computer Science")

	path := "/api/universities/" + uniID + "/majors/" + majorID
	code, _ := s.do(t, "POST", path, admin, nil)
	require.Equal(t, http.StatusOK, code)

	// both populated sides reflect the link
	_, env := s.do(t, "GET", "/api/universities/"+uniID, "", nil)
	majors := dataField(t, env, "majorInfos").([]interface{})
	require.Len(t, majors, 1)
	assert.Equal(t, "Computer Science", majors[0].(map[string]interface{})["name"])

	_, env = s.do(t, "GET", "/api/majors/"+majorID, "", nil)
	unis := dataField(t, env, "universityInfos").([]interface{})
	require.Len(t, unis, 1)
	assert.Equal(t, "Peking University", unis[0].(map[string]interface{})["name"])

	// double link rejected
	code, _ = s.do(t, "POST", path, admin, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, "DELETE", path, admin, nil)
	require.Equal(t, http.StatusOK, code)

	_, env = s.do(t, "GET", "/api/universities/"+uniID, "", nil)
	assert.Nil(t, env.Data.(map[string]interface{})["majorInfos"])
}

func TestUniversityStatsOverviewEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.registerAdmin(t, "root", "root@example.com")
	createUniversity(t, s, admin, "Fudan University")
	createUniversity(t, s, admin, "Nankai University")

	// catalog stats are public, like the rest of the catalog reads
	code, env := s.do(t, "GET", "/api/universities/stats/overview", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), dataField(t, env, "total"))
	assert.Equal(t, float64(2), dataField(t, env, "active"))
}

func TestUserAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.registerAdmin(t, "root", "root@example.com")
	s.register(t, "alice", "alice@example.com", "password123")

	code, env := s.do(t, "GET", "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, code)
	items := dataField(t, env, "items").([]interface{})
	assert.Len(t, items, 2)

	// a target user id for the admin mutations
	var aliceID string
	for _, it := range items {
		u := it.(map[string]interface{})
		if u["username"] == "alice" {
			aliceID = u["id"].(string)
		}
	}
	require.NotEmpty(t, aliceID)

	code, _ = s.do(t, "PUT", "/api/users/"+aliceID+"/status", admin, map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, code)

	// the disabled account cannot log in, with its own message
	code, env = s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, env.Message, "disabled")

	code, env = s.do(t, "PUT", "/api/users/"+aliceID+"/role", admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "admin", dataField(t, env, "role"))

	code, _ = s.do(t, "PUT", "/api/users/"+aliceID+"/role", admin, map[string]string{"role": "superuser"})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, "GET", "/api/users/stats/overview", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), dataField(t, env, "totalUsers"))
}
