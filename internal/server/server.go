// Package server exposes the group authority over a JSON HTTP API plus a
// per-group websocket change feed.
package server

import (
	"net/http"

	"github.com/BlandineRdl/EquimApp-sub001/internal/auth"
	"github.com/BlandineRdl/EquimApp-sub001/internal/service"
)

// Server wires the HTTP surface to the service layer.
type Server struct {
	svc     *service.GroupService
	authn   *auth.PasswordAuthenticator
	jwt     *auth.JWTManager
	hub     *Hub
	metrics *Metrics
}

// New creates a Server. hub must be the same Notifier the service publishes
// to, otherwise feed subscribers see nothing.
func New(svc *service.GroupService, authn *auth.PasswordAuthenticator, jwtManager *auth.JWTManager, hub *Hub, metrics *Metrics) *Server {
	return &Server{svc: svc, authn: authn, jwt: jwtManager, hub: hub, metrics: metrics}
}

// Handler builds the route table. Invitation preview is deliberately
// unauthenticated: a token recipient has no session yet.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	authed := func(h http.HandlerFunc) http.HandlerFunc { return requireAuth(s.jwt, h) }

	mux.HandleFunc("PUT /v1/profile", authed(s.handleUpsertProfile))

	mux.HandleFunc("POST /v1/groups", authed(s.handleCreateGroup))
	mux.HandleFunc("GET /v1/groups", authed(s.handleListGroups))
	mux.HandleFunc("GET /v1/groups/{groupID}", authed(s.handleGetGroup))
	mux.HandleFunc("DELETE /v1/groups/{groupID}", authed(s.handleDeleteGroup))
	mux.HandleFunc("GET /v1/groups/{groupID}/shares", authed(s.handleRefreshShares))
	mux.HandleFunc("POST /v1/groups/{groupID}/leave", authed(s.handleLeaveGroup))

	mux.HandleFunc("POST /v1/groups/{groupID}/expenses", authed(s.handleCreateExpense))
	mux.HandleFunc("PATCH /v1/groups/{groupID}/expenses/{expenseID}", authed(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /v1/groups/{groupID}/expenses/{expenseID}", authed(s.handleDeleteExpense))

	mux.HandleFunc("POST /v1/groups/{groupID}/members", authed(s.handleAddMember))
	mux.HandleFunc("POST /v1/groups/{groupID}/members/phantom", authed(s.handleAddPhantomMember))
	mux.HandleFunc("DELETE /v1/groups/{groupID}/members/{memberID}", authed(s.handleRemoveMember))
	mux.HandleFunc("GET /v1/groups/{groupID}/members/by-user/{userID}", authed(s.handleResolveMember))

	mux.HandleFunc("POST /v1/groups/{groupID}/invitations", authed(s.handleGenerateInvitation))
	mux.HandleFunc("GET /v1/invitations/{token}", s.handlePreviewInvitation)
	mux.HandleFunc("POST /v1/invitations/{token}/accept", authed(s.handleAcceptInvitation))

	mux.HandleFunc("GET /v1/groups/{groupID}/feed", authed(s.handleFeed))

	return withObservability(s.metrics, mux)
}
