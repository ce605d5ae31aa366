package handlers

import (
	"net/http"
)

// RegisterRoutes wires every handler onto the mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, auth *AuthHandler, trees *TreeHandler) {
	mux.HandleFunc("POST /api/register", auth.Register)
	mux.HandleFunc("POST /api/login", auth.Login)

	mux.HandleFunc("POST /api/trees", m.RequireAuth(trees.CreateTree))
	mux.HandleFunc("GET /api/trees", m.RequireAuth(trees.ListTrees))
	mux.HandleFunc("GET /api/trees/{id}", m.RequireAuth(trees.GetTree))
	mux.HandleFunc("PUT /api/trees/{id}", m.RequireAuth(trees.UpdateTree))
	mux.HandleFunc("DELETE /api/trees/{id}", m.RequireAuth(trees.DeleteTree))

	mux.HandleFunc("POST /api/trees/{id}/members", m.RequireAuth(trees.AddMember))
	mux.HandleFunc("PUT /api/members/{id}", m.RequireAuth(trees.UpdateMember))
	mux.HandleFunc("DELETE /api/members/{id}", m.RequireAuth(trees.DeleteMember))
	mux.HandleFunc("POST /api/members/{id}/claim", m.RequireAuth(trees.ClaimMember))

	mux.HandleFunc("POST /api/trees/{id}/relationships", m.RequireAuth(trees.AddRelationship))
	mux.HandleFunc("DELETE /api/relationships/{id}", m.RequireAuth(trees.RemoveRelationship))

	mux.HandleFunc("POST /api/trees/{id}/invitations", m.RequireAuth(trees.InviteMember))
	mux.HandleFunc("GET /api/trees/{id}/invitations", m.RequireAuth(trees.ListInvitations))
	mux.HandleFunc("DELETE /api/trees/{id}/invitations/{invitationID}", m.RequireAuth(trees.RevokeInvitation))
	mux.HandleFunc("POST /api/invitations/{token}/accept", m.RequireAuth(trees.AcceptInvitation))
}
