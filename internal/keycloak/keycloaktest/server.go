// Package keycloaktest provides an in-process fake of the Keycloak token and
// realm admin endpoints used by planmeet.
package keycloaktest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"

	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/domain"
)

const (
	Realm        = "planmeet"
	ClientID     = "planmeet-backend"
	ClientSecret = "s3cret"
	AdminToken   = "admin-token"
)

// Server is a fake realm. Zero or more users, groups and roles can be seeded
// before use; all fields are guarded by mu once the server is serving.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	passwords  map[string]string
	users      map[string]domain.User
	userOrder  []string
	groups     []domain.Group
	roles      []domain.Role
	membership map[string][]string
	roleMaps   map[string][]string
	failures   map[string]int
	writes     []string
	grants     map[string]int
}

// NewServer starts a fake realm and registers cleanup on t.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		passwords:  map[string]string{},
		users:      map[string]domain.User{},
		membership: map[string][]string{},
		roleMaps:   map[string][]string{},
		failures:   map[string]int{},
		grants:     map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/{realm}/protocol/openid-connect/token", s.token)
	mux.HandleFunc("GET /admin/realms/{realm}/users", s.admin(s.listUsers))
	mux.HandleFunc("GET /admin/realms/{realm}/groups", s.admin(s.listGroups))
	mux.HandleFunc("GET /admin/realms/{realm}/roles", s.admin(s.listRoles))
	mux.HandleFunc("GET /admin/realms/{realm}/users/{id}", s.admin(s.getUser))
	mux.HandleFunc("GET /admin/realms/{realm}/users/{id}/groups", s.admin(s.userGroups))
	mux.HandleFunc("GET /admin/realms/{realm}/users/{id}/role-mappings/realm", s.admin(s.userRoles))
	mux.HandleFunc("PUT /admin/realms/{realm}/users/{id}/groups/{gid}", s.admin(s.joinGroup))
	mux.HandleFunc("DELETE /admin/realms/{realm}/users/{id}/groups/{gid}", s.admin(s.leaveGroup))
	mux.HandleFunc("POST /admin/realms/{realm}/users/{id}/role-mappings/realm", s.admin(s.addRoles))
	mux.HandleFunc("DELETE /admin/realms/{realm}/users/{id}/role-mappings/realm", s.admin(s.removeRoles))
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Config returns a KeycloakConfig pointing at the fake.
func (s *Server) Config() config.KeycloakConfig {
	return config.KeycloakConfig{URL: s.URL, Realm: Realm, ClientID: ClientID, ClientSecret: ClientSecret}
}

// AddUser seeds a user with a password.
func (s *Server) AddUser(user domain.User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.userOrder = append(s.userOrder, user.ID)
	if user.Username != "" {
		s.passwords[user.Username] = password
	}
}

// AddGroup seeds a group.
func (s *Server) AddGroup(group domain.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, group)
}

// AddRole seeds a realm role.
func (s *Server) AddRole(role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, role)
}

// Fail makes requests whose "METHOD path" has the given suffix fail with status.
func (s *Server) Fail(methodAndPathSuffix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[methodAndPathSuffix] = status
}

// Writes returns the mutating admin calls received, as "METHOD path".
func (s *Server) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

// Grants returns how many token grants of the given type were served.
func (s *Server) Grants(grantType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[grantType]
}

// MemberGroups returns the group ids the user belongs to.
func (s *Server) MemberGroups(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.membership[userID])
}

// MemberRoles returns the realm role ids mapped to the user.
func (s *Server) MemberRoles(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.roleMaps[userID])
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("client_id") != ClientID || r.PostForm.Get("client_secret") != ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	s.mu.Lock()
	grantType := r.PostForm.Get("grant_type")
	s.grants[grantType]++
	want, known := s.passwords[r.PostForm.Get("username")]
	status, failing := s.failures["POST /token"]
	s.mu.Unlock()

	if failing {
		writeJSON(w, status, map[string]string{"error": "server_error"})
		return
	}

	switch grantType {
	case "password":
		if !known || want != r.PostForm.Get("password") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid user credentials",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":       "user-token-" + r.PostForm.Get("username"),
			"token_type":         "Bearer",
			"expires_in":         300,
			"refresh_token":      "refresh-token",
			"refresh_expires_in": 1800,
			"scope":              "openid profile email",
		})
	case "client_credentials":
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": AdminToken,
			"token_type":   "Bearer",
			"expires_in":   60,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+AdminToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "HTTP 401 Unauthorized"})
			return
		}
		if r.PathValue("realm") != Realm {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Realm not found."})
			return
		}
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		for suffix, status := range s.failures {
			if strings.HasPrefix(suffix, r.Method+" ") && strings.HasSuffix(r.URL.Path, strings.TrimPrefix(suffix, r.Method+" ")) {
				s.mu.Unlock()
				writeJSON(w, status, map[string]string{"error": "injected failure"})
				return
			}
		}
		if r.Method != http.MethodGet {
			s.writes = append(s.writes, key)
		}
		s.mu.Unlock()
		next(w, r)
	}
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, s.users[id])
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) listGroups(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.groups))
}

func (s *Server) listRoles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.roles))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) userGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := []domain.Group{}
	for _, id := range s.membership[r.PathValue("id")] {
		for _, g := range s.groups {
			if g.ID == id {
				groups = append(groups, g)
			}
		}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) userRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := []domain.Role{}
	for _, id := range s.roleMaps[r.PathValue("id")] {
		for _, role := range s.roles {
			if role.ID == id {
				roles = append(roles, role)
			}
		}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, groupID := r.PathValue("id"), r.PathValue("gid")
	if !slices.Contains(s.membership[userID], groupID) {
		s.membership[userID] = append(s.membership[userID], groupID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) leaveGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, groupID := r.PathValue("id"), r.PathValue("gid")
	s.membership[userID] = slices.DeleteFunc(s.membership[userID], func(id string) bool { return id == groupID })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addRoles(w http.ResponseWriter, r *http.Request) {
	var roles []domain.Role
	if err := json.NewDecoder(r.Body).Decode(&roles); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := r.PathValue("id")
	for _, role := range roles {
		if !slices.Contains(s.roleMaps[userID], role.ID) {
			s.roleMaps[userID] = append(s.roleMaps[userID], role.ID)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeRoles(w http.ResponseWriter, r *http.Request) {
	var roles []domain.Role
	if err := json.NewDecoder(r.Body).Decode(&roles); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := r.PathValue("id")
	for _, role := range roles {
		s.roleMaps[userID] = slices.DeleteFunc(s.roleMaps[userID], func(id string) bool { return id == role.ID })
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
