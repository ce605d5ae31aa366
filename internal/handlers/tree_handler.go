package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"kintree/internal/models"
	"kintree/internal/service"
)

// TreeHandler exposes the tree, member, relationship and invitation
// operations over JSON. Authorization is a single check per mutating
// request: the caller must hold a writing role on the target tree.
type TreeHandler struct {
	treeService         *service.TreeService
	memberService       *service.MemberService
	relationshipService *service.RelationshipService
	invitationService   *service.InvitationService
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService *service.TreeService, memberService *service.MemberService,
	relationshipService *service.RelationshipService, invitationService *service.InvitationService) *TreeHandler {
	return &TreeHandler{
		treeService:         treeService,
		memberService:       memberService,
		relationshipService: relationshipService,
		invitationService:   invitationService,
	}
}

// CreateTree handles POST /api/trees
func (h *TreeHandler) CreateTree(w http.ResponseWriter, r *http.Request) {
	var req createTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, "invalid request body")
		return
	}

	tree, err := h.treeService.CreateTree(req.Name, req.Description, req.Privacy, userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTreeResponse(tree))
}

// ListTrees handles GET /api/trees
func (h *TreeHandler) ListTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := h.treeService.GetUserTrees(userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]treeResponse, 0, len(trees))
	for i := range trees {
		resp = append(resp, toTreeResponse(&trees[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetTree handles GET /api/trees/{id}; the response carries the projected
// nodes. Optional query parameters `focal` and `depth` bound the
// projection to a neighborhood for large trees, `root` re-anchors the
// blood-relation flag.
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), treeID, false); err != nil {
		respondError(w, err)
		return
	}

	opts := service.ProjectionOptions{
		RootMemberID:  queryID(r, "root"),
		FocalMemberID: queryID(r, "focal"),
		MaxDepth:      int(queryID(r, "depth")),
	}

	result, err := h.treeService.GetTreeWithNodes(treeID, opts)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := treeWithNodesResponse{
		Tree:  toTreeResponse(&result.Tree),
		Nodes: make([]nodeResponse, 0, len(result.Nodes)),
	}
	for _, node := range result.Nodes {
		resp.Nodes = append(resp.Nodes, toNodeResponse(node))
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateTree handles PUT /api/trees/{id}
func (h *TreeHandler) UpdateTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), treeID, true); err != nil {
		respondError(w, err)
		return
	}

	var req createTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, "invalid request body")
		return
	}

	tree, err := h.treeService.UpdateTree(treeID, req.Name, req.Description, req.Privacy)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTreeResponse(tree))
}

// DeleteTree handles DELETE /api/trees/{id}
func (h *TreeHandler) DeleteTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.treeService.DeleteTree(treeID, userIDFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AddMember handles POST /api/trees/{id}/members
func (h *TreeHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), treeID, true); err != nil {
		respondError(w, err)
		return
	}

	var req memberPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, "invalid request body")
		return
	}
	profile, err := req.toProfile()
	if err != nil {
		respondValidationError(w, err.Error())
		return
	}

	member, err := h.memberService.AddMember(treeID, profile, nil)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMemberResponse(member))
}

// UpdateMember handles PUT /api/members/{id}
func (h *TreeHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	member, err := h.memberService.GetMember(memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), member.TreeID, true); err != nil {
		respondError(w, err)
		return
	}

	var req memberPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, "invalid request body")
		return
	}
	profile, err := req.toProfile()
	if err != nil {
		respondValidationError(w, err.Error())
		return
	}

	updated, err := h.memberService.UpdateMember(memberID, profile)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMemberResponse(updated))
}

// DeleteMember handles DELETE /api/members/{id}; every relationship edge
// referencing the member goes with it
func (h *TreeHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	member, err := h.memberService.GetMember(memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), member.TreeID, true); err != nil {
		respondError(w, err)
		return
	}

	if err := h.memberService.DeleteMember(memberID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ClaimMember handles POST /api/members/{id}/claim, linking the member to
// the calling account
func (h *TreeHandler) ClaimMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	member, err := h.memberService.GetMember(memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	userID := userIDFromContext(r.Context())
	if err := h.treeService.VerifyTreeAccess(userID, member.TreeID, false); err != nil {
		respondError(w, err)
		return
	}

	claimed, err := h.memberService.Claim(memberID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMemberResponse(claimed))
}

// AddRelationship handles POST /api/trees/{id}/relationships
func (h *TreeHandler) AddRelationship(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), treeID, true); err != nil {
		respondError(w, err)
		return
	}

	var req addRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, "invalid request body")
		return
	}

	rel, err := h.relationshipService.AddRelationship(treeID, req.FromMemberID, req.ToMemberID, models.RelationshipType(req.Type))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRelationshipResponse(rel))
}

// RemoveRelationship handles DELETE /api/relationships/{id}
func (h *TreeHandler) RemoveRelationship(w http.ResponseWriter, r *http.Request) {
	relID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rel, err := h.relationshipService.GetRelationship(relID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), rel.TreeID, true); err != nil {
		respondError(w, err)
		return
	}

	if err := h.relationshipService.RemoveRelationship(relID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// InviteMember handles POST /api/trees/{id}/invitations
func (h *TreeHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID := userIDFromContext(r.Context())
	if err := h.treeService.VerifyTreeAccess(userID, treeID, true); err != nil {
		respondError(w, err)
		return
	}

	var req inviteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, "invalid request body")
		return
	}
	profile, err := req.Profile.toProfile()
	if err != nil {
		respondValidationError(w, err.Error())
		return
	}
	if profile.FirstName == "" {
		profile.FirstName = req.Email
	}

	invitation, err := h.invitationService.InviteMember(r.Context(), treeID, req.Email, req.Role, profile, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInvitationResponse(invitation))
}

// ListInvitations handles GET /api/trees/{id}/invitations
func (h *TreeHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), treeID, true); err != nil {
		respondError(w, err)
		return
	}

	invitations, err := h.invitationService.ListTreeInvitations(treeID)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]invitationResponse, 0, len(invitations))
	for i := range invitations {
		resp = append(resp, toInvitationResponse(&invitations[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// RevokeInvitation handles DELETE /api/trees/{id}/invitations/{invitationID}
func (h *TreeHandler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	invitationID, ok := pathID(w, r, "invitationID")
	if !ok {
		return
	}
	if err := h.treeService.VerifyTreeAccess(userIDFromContext(r.Context()), treeID, true); err != nil {
		respondError(w, err)
		return
	}

	if err := h.invitationService.RevokeInvitation(treeID, invitationID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AcceptInvitation handles POST /api/invitations/{token}/accept
func (h *TreeHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondValidationError(w, "invitation token is required")
		return
	}

	member, err := h.invitationService.AcceptInvitation(token, userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMemberResponse(member))
}

// pathID parses a numeric path parameter, responding with 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondValidationError(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter, zero when absent,
// unparsable or negative
func queryID(r *http.Request, name string) int64 {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
