package fakedir

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/platformops/idsweep/pkg/apiclient"
)

func (s *Server) whoAmI(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, apiclient.Session{Username: session})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]apiclient.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req apiclient.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.Username]; ok {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	user := &apiclient.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		FullName:  req.FullName,
		CreatedAt: time.Now().UTC(),
	}
	s.users[req.Username] = user
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	username := pathParam(r, "username")

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := pathParam(r, "username")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	delete(s.users, username)
	for name, m := range s.mappings {
		if m.User == username {
			delete(s.mappings, name)
		}
	}
	for _, identity := range s.identities {
		if identity.User == username {
			identity.User = ""
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listIdentities(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")

	s.mu.Lock()
	identities := make([]apiclient.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		if provider != "" && identity.Provider != provider {
			continue
		}
		identities = append(identities, *identity)
	}
	s.mu.Unlock()

	sort.Slice(identities, func(i, j int) bool { return identities[i].Name < identities[j].Name })
	writeJSON(w, http.StatusOK, identities)
}

func (s *Server) createIdentity(w http.ResponseWriter, r *http.Request) {
	var req apiclient.CreateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Provider == "" || req.ProviderUsername == "" {
		writeError(w, http.StatusBadRequest, "provider and provider_username are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := apiclient.IdentityName(req.Provider, req.ProviderUsername)
	if _, ok := s.identities[name]; ok {
		writeError(w, http.StatusConflict, "identity already exists")
		return
	}
	identity := &apiclient.Identity{
		ID:               uuid.New().String(),
		Name:             name,
		Provider:         req.Provider,
		ProviderUsername: req.ProviderUsername,
		CreatedAt:        time.Now().UTC(),
	}
	s.identities[name] = identity
	writeJSON(w, http.StatusCreated, identity)
}

func (s *Server) getIdentity(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[name]
	if !ok {
		writeError(w, http.StatusNotFound, "identity not found")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) deleteIdentity(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[name]
	if !ok {
		writeError(w, http.StatusNotFound, "identity not found")
		return
	}
	delete(s.identities, name)
	delete(s.mappings, name)
	if user, ok := s.users[identity.User]; ok {
		user.Identities = removeString(user.Identities, name)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createMapping(w http.ResponseWriter, r *http.Request) {
	var req apiclient.CreateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identity == "" || req.User == "" {
		writeError(w, http.StatusBadRequest, "identity and user are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[req.Identity]
	if !ok {
		writeError(w, http.StatusNotFound, "identity not found")
		return
	}
	user, ok := s.users[req.User]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if _, ok := s.mappings[req.Identity]; ok {
		writeError(w, http.StatusConflict, "mapping already exists for identity")
		return
	}
	mapping := &apiclient.Mapping{
		ID:        uuid.New().String(),
		Identity:  req.Identity,
		User:      req.User,
		CreatedAt: time.Now().UTC(),
	}
	s.mappings[req.Identity] = mapping
	identity.User = req.User
	user.Identities = append(user.Identities, req.Identity)
	writeJSON(w, http.StatusCreated, mapping)
}

func (s *Server) getMapping(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "identity")

	s.mu.Lock()
	defer s.mu.Unlock()

	mapping, ok := s.mappings[name]
	if !ok {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

func (s *Server) deleteMapping(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "identity")

	s.mu.Lock()
	defer s.mu.Unlock()

	mapping, ok := s.mappings[name]
	if !ok {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}
	delete(s.mappings, name)
	if identity, ok := s.identities[name]; ok {
		identity.User = ""
	}
	if user, ok := s.users[mapping.User]; ok {
		user.Identities = removeString(user.Identities, name)
	}
	w.WriteHeader(http.StatusNoContent)
}

func removeString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
