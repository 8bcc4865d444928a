package handler

import (
	"context"
	"net/http"
	"strconv"

	"memwatch/internal/model"
	"memwatch/pkg/apierror"
)

const defaultSampleLimit = 5

// SampleReader is the query side of the sample store. Implemented by
// repository.SampleRepository.
type SampleReader interface {
	FindRecent(ctx context.Context, limit int) ([]model.MemorySample, error)
}

type MemoryHandler struct {
	samples SampleReader
}

func NewMemoryHandler(samples SampleReader) *MemoryHandler {
	return &MemoryHandler{samples: samples}
}

// Info returns the last `limit` recorded samples, most recent first. A
// failed store query, like an empty store, is a 400 to the caller.
func (h *MemoryHandler) Info(w http.ResponseWriter, r *http.Request) {
	limit := defaultSampleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apierror.New("BAD_REQUEST", "limit must be a positive integer", raw, http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	samples, err := h.samples.FindRecent(r.Context(), limit)
	if err != nil || len(samples) == 0 {
		writeError(w, apierror.New("BAD_REQUEST", "bad request", "", http.StatusBadRequest))
		return
	}

	writeJSON(w, http.StatusOK, samples)
}
