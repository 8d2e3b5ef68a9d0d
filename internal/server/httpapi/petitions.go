package httpapi

import (
	"net/http"

	"github.com/petitions/petitiond/internal/server/services"
)

// queryParam returns nil when key is absent from the query string.
func queryParam(r *http.Request, key string) *string {
	v, ok := r.URL.Query()[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

func (s *Server) getPetitions(w http.ResponseWriter, r *http.Request) {
	q := services.PetitionQuery{
		Q:          queryParam(r, "q"),
		CategoryID: queryParam(r, "categoryId"),
		AuthorID:   queryParam(r, "authorId"),
		StartIndex: queryParam(r, "startIndex"),
		Count:      queryParam(r, "count"),
		SortBy:     queryParam(r, "sortBy"),
	}

	rows, err := s.petitions.GetPetitions(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) addPetition(w http.ResponseWriter, r *http.Request) {
	var req services.NewPetition
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	id, err := s.petitions.AddPetition(r.Context(), token(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"petitionId": id})
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.petitions.GetAllCategories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) getPetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.petitions.GetPetition(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) editPetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var patch services.PetitionPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.petitions.EditPetition(r.Context(), id, token(r), patch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "Petition edited successfully")
}

func (s *Server) deletePetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.petitions.DeletePetition(r.Context(), id, token(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "Petition and its signatures have been deleted")
}

func (s *Server) getSignatures(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sigs, err := s.petitions.GetSignatures(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sigs)
}

func (s *Server) sign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.petitions.Sign(r.Context(), id, token(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusCreated, "Petition successfully signed")
}

func (s *Server) unsign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.petitions.Unsign(r.Context(), id, token(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "Signature successfully removed")
}

func (s *Server) getPetitionPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	photo, err := s.petitions.GetPetitionPhoto(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePhoto(w, photo.Data, photo.ContentType)
}

func (s *Server) setPetitionPhoto(w http.ResponseWriter, r *http.Request) {
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

	created, err := s.petitions.SetPetitionPhoto(r.Context(), id, token(r), contentType, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if created {
		writeText(w, http.StatusCreated, "Petition photo saved successfully")
		return
	}
	writeText(w, http.StatusOK, "Petition photo overwritten and saved successfully")
}
