package server

import (
	"errors"
	"net/http"

	"github.com/BlandineRdl/EquimApp-sub001/internal/auth"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
	"github.com/BlandineRdl/EquimApp-sub001/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := s.authn.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) || errors.Is(err, auth.ErrEmailExists) {
			writeErrorCode(w, http.StatusBadRequest, models.CodeValidation, err.Error())
			return
		}
		writeError(w, err)
		return
	}
	s.writeSession(w, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := s.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErrorCode(w, http.StatusUnauthorized, models.CodeUnauthenticated, err.Error())
		return
	}
	s.writeSession(w, user)
}

func (s *Server) writeSession(w http.ResponseWriter, user *models.User) {
	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

type profileRequest struct {
	Pseudo       string  `json:"pseudo"`
	Income       float64 `json:"income"`
	IncomeShared bool    `json:"income_shared"`
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.UpsertProfile(r.Context(), userID(r.Context()), req.Pseudo, req.Income, req.IncomeShared); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	group, err := s.svc.CreateGroup(r.Context(), userID(r.Context()), req.Name, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.ListGroups(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.svc.GetGroup(r.Context(), userID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGroup(r.Context(), userID(r.Context()), r.PathValue("groupID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sharesResponse struct {
	Shares models.Shares `json:"shares"`
}

func (s *Server) handleRefreshShares(w http.ResponseWriter, r *http.Request) {
	shares, err := s.svc.RefreshShares(r.Context(), userID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

type leaveGroupResponse struct {
	Deleted bool `json:"deleted"`
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.svc.LeaveGroup(r.Context(), userID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaveGroupResponse{Deleted: deleted})
}

type createExpenseRequest struct {
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	IsPredefined bool    `json:"is_predefined"`
}

type createExpenseResponse struct {
	Expense *models.Expense `json:"expense"`
	Shares  models.Shares   `json:"shares"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	expense, shares, err := s.svc.CreateExpense(r.Context(), userID(r.Context()), r.PathValue("groupID"),
		req.Name, req.Amount, req.Currency, req.IsPredefined)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createExpenseResponse{Expense: expense, Shares: shares})
}

type updateExpenseRequest struct {
	Name   *string  `json:"name,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	shares, err := s.svc.UpdateExpense(r.Context(), userID(r.Context()), r.PathValue("groupID"),
		r.PathValue("expenseID"), service.ExpensePatch{Name: req.Name, Amount: req.Amount})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	shares, err := s.svc.DeleteExpense(r.Context(), userID(r.Context()), r.PathValue("groupID"), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	shares, err := s.svc.AddMember(r.Context(), userID(r.Context()), r.PathValue("groupID"), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

type addPhantomMemberRequest struct {
	Pseudo string  `json:"pseudo"`
	Income float64 `json:"income"`
}

func (s *Server) handleAddPhantomMember(w http.ResponseWriter, r *http.Request) {
	var req addPhantomMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	shares, err := s.svc.AddPhantomMember(r.Context(), userID(r.Context()), r.PathValue("groupID"), req.Pseudo, req.Income)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	shares, err := s.svc.RemoveMember(r.Context(), userID(r.Context()), r.PathValue("groupID"), r.PathValue("memberID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{Shares: shares})
}

func (s *Server) handleResolveMember(w http.ResponseWriter, r *http.Request) {
	member, err := s.svc.ResolveMember(r.Context(), userID(r.Context()), r.PathValue("groupID"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleGenerateInvitation(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.GenerateInvitation(r.Context(), userID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handlePreviewInvitation(w http.ResponseWriter, r *http.Request) {
	preview, err := s.svc.PreviewInvitation(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	if preview == nil {
		// Unknown token is "null", not an error, but a 404 lets clients
		// tell the two apart without sniffing the body.
		writeErrorCode(w, http.StatusNotFound, models.CodeNotFound, "unknown invitation token")
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

type acceptInvitationResponse struct {
	GroupID string        `json:"group_id"`
	Shares  models.Shares `json:"shares"`
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	groupID, shares, err := s.svc.AcceptInvitation(r.Context(), userID(r.Context()), r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acceptInvitationResponse{GroupID: groupID, Shares: shares})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	// Feed access follows group read access.
	if _, err := s.svc.GetGroup(r.Context(), userID(r.Context()), groupID); err != nil {
		writeError(w, err)
		return
	}
	s.hub.ServeFeed(w, r, groupID)
}
