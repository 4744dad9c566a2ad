package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/log"
)

type entriesResponse struct {
	Entries []core.Entry `json:"entries"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var p entryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	fields, err := p.parse()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := storeContext(r)
	defer cancel()

	created, err := s.entries.Create(ctx, core.Entry{
		OwnerEmail:  user.Email,
		Description: fields.Description,
		Amount:      fields.Amount,
		Category:    fields.Category,
		OccurredOn:  fields.OccurredOn,
		DisplayDate: fields.DisplayDate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(ctx, "Entry created",
		log.FieldOwner, user.Email,
		log.FieldEntryID, created.ID,
		log.FieldCategory, string(created.Category),
		log.FieldAmount, created.Amount.Cents)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ctx, cancel := storeContext(r)
	defer cancel()

	entries, err := s.entries.List(ctx, user.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: entries})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	id := mux.Vars(r)["id"]

	ctx, cancel := storeContext(r)
	defer cancel()

	entry, err := s.entries.Get(ctx, user.Email, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	id := mux.Vars(r)["id"]

	var p entryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	fields, err := p.parse()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := storeContext(r)
	defer cancel()

	updated, err := s.entries.Update(ctx, user.Email, id, fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(ctx, "Entry updated",
		log.FieldOwner, user.Email,
		log.FieldEntryID, id)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	id := mux.Vars(r)["id"]

	ctx, cancel := storeContext(r)
	defer cancel()

	if err := s.entries.Delete(ctx, user.Email, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(ctx, "Entry deleted",
		log.FieldOwner, user.Email,
		log.FieldEntryID, id)
	w.WriteHeader(http.StatusNoContent)
}
