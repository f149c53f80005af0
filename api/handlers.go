/*
handlers.go - HTTP API handlers for the capacity engine

PURPOSE:
  Exposes the analysis and exception-ledger operations via REST. Handles
  HTTP request/response and JSON serialization; all computation lives in
  the analysis and exceptions packages.

ENDPOINTS:
  Setup:
    POST   /api/setup                   Configure the record source
    GET    /api/containers              Board lists

  Analysis:
    POST   /api/analyze                 Historical member statistics
    POST   /api/suggest                 Capacity suggestions

  Exceptions:
    GET    /api/exceptions/{sprint}     Entries for one sprint
    PUT    /api/exceptions/{sprint}     Replace entries for one sprint
    DELETE /api/exceptions/{sprint}     Clear entries for one sprint
    GET    /api/exceptions/sprinters    Sprinter ids across history

  Settings:
    GET    /api/settings                Current settings (with defaults)
    PUT    /api/settings                Partial settings update

ERROR HANDLING:
  Precondition failures (no fields, no records, no sprinters) return 400
  with the guidance message from the engine. Upstream board failures
  return 502. Ledger persistence failures return 500 with success=false
  rather than aborting anything else.

ARCHITECTURE:
  Handler holds the process-wide dependencies (ledger, logger, source).
  The record source may be configured at startup from config or later via
  POST /api/setup; a mutex guards the swap.

SEE ALSO:
  - dto.go: request/response types
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/capacity-engine/analysis"
	"github.com/warp/capacity-engine/board"
	"github.com/warp/capacity-engine/exceptions"
	"github.com/warp/capacity-engine/trello"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *exceptions.Ledger
	Log    *zap.Logger

	// NewSource builds a record source from credentials. Swappable in
	// tests; defaults to the Trello client.
	NewSource func(apiKey, token, boardID string) board.Source

	mu     sync.RWMutex
	source board.Source

	// Defaults from config, overridable per request.
	DefaultArchiveListID string
	DefaultWorkingDays   int
}

// NewHandler creates a handler. source may be nil when credentials are
// expected via POST /api/setup.
func NewHandler(ledger *exceptions.Ledger, source board.Source, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		Ledger: ledger,
		Log:    log,
		source: source,
	}
	h.NewSource = func(apiKey, token, boardID string) board.Source {
		return trello.NewClient(apiKey, token, boardID, log)
	}
	return h
}

func (h *Handler) getSource() (board.Source, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.source, h.source != nil
}

// =============================================================================
// SETUP
// =============================================================================

// Setup constructs the record source from posted credentials and verifies
// it by listing the board's containers.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.APIKey == "" || req.Token == "" || req.BoardID == "" {
		writeError(w, http.StatusBadRequest, "api_key, token and board_id are required", nil)
		return
	}

	source := h.NewSource(req.APIKey, req.Token, req.BoardID)
	lists, err := source.FetchContainers(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "board connection failed", err)
		return
	}

	h.mu.Lock()
	h.source = source
	h.mu.Unlock()
	h.Log.Info("record source configured", zap.String("board", req.BoardID))

	writeJSON(w, http.StatusOK, SetupResponse{
		Success: true,
		Message: "board connection established",
		Lists:   lists,
	})
}

// ListContainers returns the board's lists.
func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	source, ok := h.getSource()
	if !ok {
		writeError(w, http.StatusBadRequest, "record source not configured: call /api/setup first", nil)
		return
	}
	lists, err := source.FetchContainers(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "fetching lists failed", err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// =============================================================================
// ANALYSIS
// =============================================================================

// fetchAnalysisInput pulls field definitions and records and builds an
// analyzer. Returns nil and writes the response on failure.
func (h *Handler) fetchAnalysisInput(w http.ResponseWriter, r *http.Request, archiveList string, sprint int) (*analysis.Analyzer, []board.Record, bool) {
	if archiveList == "" {
		archiveList = h.DefaultArchiveListID
	}
	if archiveList == "" || sprint == 0 {
		writeError(w, http.StatusBadRequest, "archive_list_id and current_sprint_number are required", nil)
		return nil, nil, false
	}

	source, ok := h.getSource()
	if !ok {
		writeError(w, http.StatusBadRequest, "record source not configured: call /api/setup first", nil)
		return nil, nil, false
	}

	defs, err := source.FetchFieldDefinitions(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "fetching custom fields failed", err)
		return nil, nil, false
	}
	analyzer, err := analysis.NewAnalyzer(defs, h.Log)
	if err != nil {
		writeError(w, http.StatusBadRequest, "board is missing required custom fields", err)
		return nil, nil, false
	}

	records, err := source.FetchRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "fetching records failed", err)
		return nil, nil, false
	}
	return analyzer, records, true
}

func (h *Handler) resolveArchiveList(requested string) string {
	if requested != "" {
		return requested
	}
	return h.DefaultArchiveListID
}

// Analyze computes historical member statistics.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	analyzer, records, ok := h.fetchAnalysisInput(w, r, req.ArchiveListID, req.CurrentSprintNumber)
	if !ok {
		return
	}
	archiveList := h.resolveArchiveList(req.ArchiveListID)

	stats, periods, filtered, err := analyzer.Analyze(records, archiveList, req.CurrentSprintNumber)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success:            true,
		SprintNumbers:      periods,
		MemberStats:        stats,
		Sprinters:          analysis.ListSprinters(stats),
		TotalCardsAnalyzed: len(filtered),
		CurrentSprint:      req.CurrentSprintNumber,
	})
}

// Suggest computes capacity suggestions for the upcoming sprint.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	analyzer, records, ok := h.fetchAnalysisInput(w, r, req.ArchiveListID, req.CurrentSprintNumber)
	if !ok {
		return
	}
	archiveList := h.resolveArchiveList(req.ArchiveListID)

	stats, periods, filtered, err := analyzer.Analyze(records, archiveList, req.CurrentSprintNumber)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	workingDays := req.WorkingDays
	if workingDays <= 0 {
		workingDays = h.DefaultWorkingDays
	}
	suggestions := analyzer.Suggest(r.Context(), stats, req.CurrentSprintTotal,
		req.CurrentSprintNumber, h.Ledger, filtered, workingDays)

	total := 0
	for _, s := range suggestions {
		total += s.SuggestedSP
	}

	writeJSON(w, http.StatusOK, SuggestResponse{
		Success:            true,
		Suggestions:        suggestions,
		TotalSuggestedSP:   total,
		CurrentSprintTotal: req.CurrentSprintTotal,
		CurrentSprint:      req.CurrentSprintNumber,
		AnalyzedSprints:    periods,
		Difference:         req.CurrentSprintTotal - total,
	})
}

// writeAnalysisError maps engine precondition failures to client errors.
func writeAnalysisError(w http.ResponseWriter, err error) {
	var noPeriods *analysis.NoPeriodRecordsError
	switch {
	case errors.Is(err, board.ErrNoRecords),
		errors.Is(err, board.ErrNoFieldDefinitions),
		errors.Is(err, analysis.ErrNoAssignees),
		errors.As(err, &noPeriods):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "analysis failed", err)
	}
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func sprintParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "sprint"))
}

// GetExceptions returns the entries for one sprint.
func (h *Handler) GetExceptions(w http.ResponseWriter, r *http.Request) {
	sprint, err := sprintParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sprint must be a number", err)
		return
	}
	writeJSON(w, http.StatusOK, ExceptionsResponse{
		Sprint:     sprint,
		Exceptions: h.Ledger.LoadExceptions(r.Context(), sprint),
	})
}

// SaveExceptions replaces the entries for one sprint.
func (h *Handler) SaveExceptions(w http.ResponseWriter, r *http.Request) {
	sprint, err := sprintParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sprint must be a number", err)
		return
	}
	var req SaveExceptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Exceptions == nil {
		req.Exceptions = exceptions.PeriodExceptions{}
	}

	if !h.Ledger.SaveExceptions(r.Context(), sprint, req.Exceptions) {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Success: false, Message: "could not persist exceptions"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}

// ClearExceptions removes the entries for one sprint.
func (h *Handler) ClearExceptions(w http.ResponseWriter, r *http.Request) {
	sprint, err := sprintParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sprint must be a number", err)
		return
	}
	if !h.Ledger.ClearPeriod(r.Context(), sprint) {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Success: false, Message: "could not clear exceptions"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}

// ListLedgerSprinters returns sprinter ids seen anywhere in history.
func (h *Handler) ListLedgerSprinters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SprintersResponse{Sprinters: h.Ledger.Sprinters(r.Context())})
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the current settings merged with defaults.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: h.Ledger.GetSettings(r.Context())})
}

// UpdateSettings applies a partial settings update.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Settings) == 0 {
		writeError(w, http.StatusBadRequest, "settings mapping is required", nil)
		return
	}
	if !h.Ledger.UpdateSettings(r.Context(), req.Settings) {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Success: false, Message: "could not persist settings"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		message = message + ": " + err.Error()
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}
