package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kintree/internal/service"
)

// errorResponse is the JSON body returned for every failed request
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// respondError maps a service error onto an HTTP status and writes it.
// Every failure keeps its message so the caller can act on it; only
// unexpected errors are hidden behind a generic message.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTreeNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrRelationshipNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSelfRelationship),
		errors.Is(err, service.ErrUnknownRelationshipType),
		errors.Is(err, service.ErrMembersInDifferentTrees),
		errors.Is(err, service.ErrInvalidPrivacy),
		errors.Is(err, service.ErrInvalidGender),
		errors.Is(err, service.ErrInvalidRole):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case service.IsClaimConflict(err),
		errors.Is(err, service.ErrAccountAlreadyInTree),
		errors.Is(err, service.ErrRelationshipCycle),
		errors.Is(err, service.ErrEmailTaken):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrInvitationInvalid),
		errors.Is(err, service.ErrInvitationMismatch):
		respondJSON(w, http.StatusGone, errorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrNotTreeMember):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})

	default:
		log.Printf("Internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// respondValidationError writes a 400 for request-shape problems
func respondValidationError(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
