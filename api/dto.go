/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract.

NAMING CONVENTION:
  - *Request: request body types from clients
  - *Response: response wrappers returned to clients

VALIDATION:
  Done in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/warp/capacity-engine/analysis"
	"github.com/warp/capacity-engine/board"
	"github.com/warp/capacity-engine/exceptions"
)

// =============================================================================
// SETUP
// =============================================================================

// SetupRequest carries board credentials for source construction.
type SetupRequest struct {
	APIKey  string `json:"api_key"`
	Token   string `json:"token"`
	BoardID string `json:"board_id"`
}

type SetupResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Lists   []board.Container `json:"lists"`
}

// =============================================================================
// ANALYZE / SUGGEST
// =============================================================================

type AnalyzeRequest struct {
	ArchiveListID       string `json:"archive_list_id"`
	CurrentSprintNumber int    `json:"current_sprint_number"`
}

type AnalyzeResponse struct {
	Success            bool                             `json:"success"`
	SprintNumbers      []int                            `json:"sprint_numbers"`
	MemberStats        map[string]*analysis.MemberStats `json:"member_stats"`
	Sprinters          []analysis.Sprinter              `json:"sprinters"`
	TotalCardsAnalyzed int                              `json:"total_cards_analyzed"`
	CurrentSprint      int                              `json:"current_sprint"`
}

type SuggestRequest struct {
	ArchiveListID       string `json:"archive_list_id"`
	CurrentSprintNumber int    `json:"current_sprint_number"`
	CurrentSprintTotal  int    `json:"current_sprint_total"`
	WorkingDays         int    `json:"working_days"`
}

type SuggestResponse struct {
	Success            bool                            `json:"success"`
	Suggestions        map[string]*analysis.Suggestion `json:"suggestions"`
	TotalSuggestedSP   int                             `json:"total_suggested_sp"`
	CurrentSprintTotal int                             `json:"current_sprint_total"`
	CurrentSprint      int                             `json:"current_sprint_number"`
	AnalyzedSprints    []int                           `json:"analyzed_sprints"`
	Difference         int                             `json:"difference"`
}

// =============================================================================
// EXCEPTIONS / SETTINGS
// =============================================================================

type SaveExceptionsRequest struct {
	Exceptions exceptions.PeriodExceptions `json:"exceptions"`
}

type ExceptionsResponse struct {
	Sprint     int                         `json:"sprint"`
	Exceptions exceptions.PeriodExceptions `json:"exceptions"`
}

type SprintersResponse struct {
	Sprinters []string `json:"sprinters"`
}

type SettingsResponse struct {
	Settings exceptions.Settings `json:"settings"`
}

type UpdateSettingsRequest struct {
	Settings exceptions.Settings `json:"settings"`
}

// StatusResponse reports a bare success flag for mutations.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
