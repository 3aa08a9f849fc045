package api

import (
	"net/http"
	"strings"
)

// SearchHandler exposes the web lookup tool.
type SearchHandler struct {
	deps Dependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps Dependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Text string `json:"text"`
}

// HandleSearch handles POST /search.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search"
	var req searchRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeServiceError(w, NewKind(op, ErrBadRequest, "missing query"))
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Text: h.deps.Search(r.Context(), req.Query)})
}
