package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/matzehuels/tailwater/pkg/buildinfo"
	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
	"github.com/matzehuels/tailwater/pkg/pipeline"
	"github.com/matzehuels/tailwater/pkg/topology"
)

// maxRequestBytes bounds an inline table upload (roughly 10M segments).
const maxRequestBytes = 256 << 20

// DecomposeRequest is the body of POST /v1/decompose.
type DecomposeRequest struct {
	// IDs and Downstreams are the table columns, row-aligned.
	IDs         []int64 `json:"ids"`
	Downstreams []int64 `json:"downstreams"`

	// Mask restricts the run to a subset of segments (optional).
	Mask []int64 `json:"mask,omitempty"`

	Sentinel int64 `json:"sentinel"`
	Partial  bool  `json:"partial,omitempty"`
	Refresh  bool  `json:"refresh,omitempty"`
}

// DecomposeResponse is the body of a successful decomposition.
type DecomposeResponse struct {
	RunID     string            `json:"run_id"`
	TableHash string            `json:"table_hash"`
	DocHash   string            `json:"doc_hash"`
	Cached    bool              `json:"cached"`
	Networks  int               `json:"networks"`
	Reaches   int               `json:"reaches"`
	Failures  []failureResponse `json:"failures,omitempty"`
	Document  topology.Document `json:"document"`
}

type failureResponse struct {
	Tailwater int64  `json:"tailwater"`
	Error     string `json:"error"`
}

// errorResponse is the body of any failed request.
type errorResponse struct {
	Code     string  `json:"code"`
	Error    string  `json:"error"`
	Segments []int64 `json:"segments,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

func (s *Server) handleDecompose(w http.ResponseWriter, r *http.Request) {
	var req DecomposeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}

	table, err := network.NewTable(toSegmentIDs(req.IDs), toSegmentIDs(req.Downstreams))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeDataFormat, err, "build table"))
		return
	}

	opts := pipeline.Options{
		Table:    table,
		Sentinel: req.Sentinel,
		Partial:  req.Partial,
		Refresh:  req.Refresh,
		Logger:   s.logger,
	}
	if len(req.Mask) > 0 {
		opts.Mask = make(map[network.SegmentID]bool, len(req.Mask))
		for _, id := range req.Mask {
			opts.Mask[network.SegmentID(id)] = true
		}
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := DecomposeResponse{
		RunID:     uuid.NewString(),
		TableHash: result.TableHash,
		DocHash:   result.DocHash,
		Cached:    result.CacheInfo.DecompositionHit,
		Networks:  result.Stats.NetworkCount,
		Reaches:   result.Stats.ReachCount,
		Document:  topology.FromDecomposition(result.Decomposition),
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, failureResponse{
			Tailwater: int64(f.Tailwater),
			Error:     f.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidColumn,
		errors.ErrCodeInvalidSentinel, errors.ErrCodeInvalidFormat,
		errors.ErrCodeDataFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeStructural:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeSegmentNotFound:
		status = http.StatusNotFound
	}

	writeJSON(w, status, errorResponse{
		Code:     string(errors.GetCode(err)),
		Error:    errors.UserMessage(err),
		Segments: errors.OffendingSegments(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toSegmentIDs(ids []int64) []network.SegmentID {
	out := make([]network.SegmentID, len(ids))
	for i, id := range ids {
		out[i] = network.SegmentID(id)
	}
	return out
}
