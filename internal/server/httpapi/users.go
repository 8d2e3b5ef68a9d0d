package httpapi

import (
	"net/http"

	"github.com/petitions/petitiond/internal/server/services"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	id, err := s.users.Register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"userId": id})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	session, err := s.users.Login(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), token(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "[200] User logged out")
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	info, err := s.users.GetUserInfo(r.Context(), id, token(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) editUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var patch services.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.users.EditUser(r.Context(), id, token(r), patch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "Patched!")
}

func (s *Server) getUserPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	photo, err := s.users.GetUserPhoto(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePhoto(w, photo.Data, photo.ContentType)
}

func (s *Server) setUserPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, contentType, err := readPhoto(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.users.SetUserPhoto(r.Context(), id, token(r), contentType, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if created {
		writeText(w, http.StatusCreated, "User photo saved successfully")
		return
	}
	writeText(w, http.StatusOK, "User photo overwritten and saved successfully")
}

func (s *Server) deleteUserPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.users.DeleteUserPhoto(r.Context(), id, token(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "User photo deleted!")
}
