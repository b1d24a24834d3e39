package groups

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
	"github.com/BlandineRdl/EquimApp-sub001/internal/service"
)

// Ensure Client implements Port
var _ Port = (*Client)(nil)

// TokenSource supplies the current session token; empty means
// unauthenticated.
type TokenSource func() string

// Client is the HTTP implementation of Port.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// NewClient creates a Port implementation against the given authority base
// URL (e.g. "http://localhost:8080").
func NewClient(baseURL string, httpClient *http.Client, token TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{baseURL: baseURL, http: httpClient, token: token}
}

// errorBody mirrors the server's failure shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do performs one JSON round trip. Transport failures wrap into
// *models.TransportError; non-2xx responses map back to the domain error
// taxonomy via the shared wire-code table.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return &models.TransportError{Op: method + " " + path, Err: fmt.Errorf("status %d", resp.StatusCode)}
		}
		return models.ErrorFromCode(eb.Code, eb.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.TransportError{Op: method + " " + path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) CreateGroup(ctx context.Context, name, currency string) (string, error) {
	var group models.Group
	err := c.do(ctx, http.MethodPost, "/v1/groups", map[string]string{"name": name, "currency": currency}, &group)
	if err != nil {
		return "", err
	}
	return group.ID, nil
}

func (c *Client) GetGroupByID(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group
	if err := c.do(ctx, http.MethodGet, "/v1/groups/"+url.PathEscape(groupID), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.do(ctx, http.MethodGet, "/v1/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/groups/"+url.PathEscape(groupID), nil, nil)
}

type expenseResponse struct {
	Expense *models.Expense `json:"expense"`
	Shares  models.Shares   `json:"shares"`
}

type sharesResponse struct {
	Shares models.Shares `json:"shares"`
}

func (c *Client) CreateExpense(ctx context.Context, groupID, name string, amount float64, currency string, isPredefined bool) (*ExpenseResult, error) {
	req := map[string]any{"name": name, "amount": amount, "currency": currency, "is_predefined": isPredefined}
	var resp expenseResponse
	if err := c.do(ctx, http.MethodPost, "/v1/groups/"+url.PathEscape(groupID)+"/expenses", req, &resp); err != nil {
		return nil, err
	}
	return &ExpenseResult{Expense: resp.Expense, Shares: resp.Shares}, nil
}

func (c *Client) UpdateExpense(ctx context.Context, groupID, expenseID string, patch service.ExpensePatch) (models.Shares, error) {
	req := map[string]any{}
	if patch.Name != nil {
		req["name"] = *patch.Name
	}
	if patch.Amount != nil {
		req["amount"] = *patch.Amount
	}
	var resp sharesResponse
	err := c.do(ctx, http.MethodPatch, "/v1/groups/"+url.PathEscape(groupID)+"/expenses/"+url.PathEscape(expenseID), req, &resp)
	return resp.Shares, err
}

func (c *Client) DeleteExpense(ctx context.Context, groupID, expenseID string) (models.Shares, error) {
	var resp sharesResponse
	err := c.do(ctx, http.MethodDelete, "/v1/groups/"+url.PathEscape(groupID)+"/expenses/"+url.PathEscape(expenseID), nil, &resp)
	return resp.Shares, err
}

func (c *Client) AddMember(ctx context.Context, groupID, userID string) (models.Shares, error) {
	var resp sharesResponse
	err := c.do(ctx, http.MethodPost, "/v1/groups/"+url.PathEscape(groupID)+"/members", map[string]string{"user_id": userID}, &resp)
	return resp.Shares, err
}

func (c *Client) AddPhantomMember(ctx context.Context, groupID, pseudo string, income float64) (models.Shares, error) {
	req := map[string]any{"pseudo": pseudo, "income": income}
	var resp sharesResponse
	err := c.do(ctx, http.MethodPost, "/v1/groups/"+url.PathEscape(groupID)+"/members/phantom", req, &resp)
	return resp.Shares, err
}

func (c *Client) RemoveMember(ctx context.Context, groupID, memberID string) (models.Shares, error) {
	var resp sharesResponse
	err := c.do(ctx, http.MethodDelete, "/v1/groups/"+url.PathEscape(groupID)+"/members/"+url.PathEscape(memberID), nil, &resp)
	return resp.Shares, err
}

func (c *Client) LeaveGroup(ctx context.Context, groupID string) (bool, error) {
	var resp struct {
		Deleted bool `json:"deleted"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/groups/"+url.PathEscape(groupID)+"/leave", nil, &resp)
	return resp.Deleted, err
}

func (c *Client) RefreshGroupShares(ctx context.Context, groupID string) (models.Shares, error) {
	var resp sharesResponse
	err := c.do(ctx, http.MethodGet, "/v1/groups/"+url.PathEscape(groupID)+"/shares", nil, &resp)
	return resp.Shares, err
}

func (c *Client) GenerateInvitation(ctx context.Context, groupID string) (*models.InvitationLink, error) {
	var link models.InvitationLink
	if err := c.do(ctx, http.MethodPost, "/v1/groups/"+url.PathEscape(groupID)+"/invitations", nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) GetInvitationDetails(ctx context.Context, token string) (*models.InvitationPreview, error) {
	var preview models.InvitationPreview
	err := c.do(ctx, http.MethodGet, "/v1/invitations/"+url.PathEscape(token), nil, &preview)
	if err != nil {
		// Unknown token is "null", not an error.
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &preview, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, token string) (*AcceptResult, error) {
	var resp struct {
		GroupID string        `json:"group_id"`
		Shares  models.Shares `json:"shares"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(token)+"/accept", nil, &resp); err != nil {
		return nil, err
	}
	return &AcceptResult{GroupID: resp.GroupID, Shares: resp.Shares}, nil
}

func (c *Client) UpsertProfile(ctx context.Context, pseudo string, income float64, incomeShared bool) error {
	req := map[string]any{"pseudo": pseudo, "income": income, "income_shared": incomeShared}
	return c.do(ctx, http.MethodPut, "/v1/profile", req, nil)
}

func (c *Client) ResolveMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	var member models.Member
	err := c.do(ctx, http.MethodGet, "/v1/groups/"+url.PathEscape(groupID)+"/members/by-user/"+url.PathEscape(userID), nil, &member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
