package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/lazypower/docrank/internal/engine"
	"github.com/lazypower/docrank/internal/store"
)

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	in, err := DecodeBatch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.engine.Learn(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n", 5)
	if !ok {
		return
	}

	docs, err := s.engine.Recommend(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []engine.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n", 5)
	if !ok {
		return
	}

	ranked, err := s.engine.Rank(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []engine.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": ranked})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", 20)
	if !ok {
		return
	}
	minScore := 0.0
	if v := r.URL.Query().Get("min"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min must be a number")
			return
		}
		minScore = f
	}

	var entries []store.ScoreEntry
	err := s.db.View(r.Context(), func(st store.Stores) error {
		var err error
		entries, err = st.TopScores(r.Context(), limit, minScore)
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.ScoreEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": entries})
}

func (s *Server) handleRelations(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	limit, ok := intParam(w, r, "limit", s.engine.Params().RelatedPerSeed)
	if !ok {
		return
	}

	var rels []store.Relation
	err := s.db.View(r.Context(), func(st store.Stores) error {
		var err error
		rels, err = st.TopRelated(r.Context(), name, limit)
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rels == nil {
		rels = []store.Relation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "relations": rels})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	docs, err := s.db.ListDocuments(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var doc store.Document
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if doc.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := s.db.PutDocument(r.Context(), &doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := s.db.GetDocumentByName(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := s.db.DeleteDocument(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// intParam reads an integer query parameter. On a parse error it writes a
// 400 and returns ok == false.
func intParam(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, key+" must be an integer")
		return 0, false
	}
	return n, true
}
