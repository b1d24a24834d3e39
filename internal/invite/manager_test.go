package invite

import (
	"context"
	"errors"
	"testing"

	"github.com/BlandineRdl/EquimApp-sub001/internal/groups"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

type fakeAuthority struct {
	preview    *models.InvitationPreview
	previewErr error
	acceptErr  error
	upsertErr  error

	calls []string
}

func (f *fakeAuthority) GetInvitationDetails(ctx context.Context, token string) (*models.InvitationPreview, error) {
	f.calls = append(f.calls, "preview")
	return f.preview, f.previewErr
}

func (f *fakeAuthority) AcceptInvitation(ctx context.Context, token string) (*groups.AcceptResult, error) {
	f.calls = append(f.calls, "accept")
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return &groups.AcceptResult{GroupID: "group-1"}, nil
}

func (f *fakeAuthority) UpsertProfile(ctx context.Context, pseudo string, income float64, incomeShared bool) error {
	f.calls = append(f.calls, "upsert")
	return f.upsertErr
}

type fakeIdentity struct {
	user *models.User
	err  error
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*models.User, error) {
	return f.user, f.err
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshGroupList(ctx context.Context) error {
	f.calls++
	return f.err
}

func onboardedUser() *models.User {
	return &models.User{ID: "user-1", Email: "alice@example.com", Pseudo: "Alice", Income: 3000}
}

func TestAcceptValidation(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		pseudo  string
		income  float64
		wantErr error
	}{
		{name: "empty token", token: "", pseudo: "Bob", income: 2500, wantErr: models.ErrInvalidToken},
		{name: "blank token", token: "   ", pseudo: "Bob", income: 2500, wantErr: models.ErrInvalidToken},
		{name: "short pseudo", token: "tok", pseudo: "B", income: 2500, wantErr: models.ErrValidation},
		{name: "zero income", token: "tok", pseudo: "Bob", income: 0, wantErr: models.ErrValidation},
		{name: "negative income", token: "tok", pseudo: "Bob", income: -10, wantErr: models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authority := &fakeAuthority{}
			m := NewManager(authority, &fakeIdentity{user: onboardedUser()}, nil)

			_, err := m.Accept(context.Background(), tt.token, tt.pseudo, tt.income)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Accept() error = %v, want %v", err, tt.wantErr)
			}
			if len(authority.calls) != 0 {
				t.Errorf("Accept() made remote calls %v, want none", authority.calls)
			}
		})
	}
}

func TestAcceptRequiresAuthentication(t *testing.T) {
	authority := &fakeAuthority{}
	m := NewManager(authority, &fakeIdentity{err: models.ErrNotAuthenticated}, nil)

	_, err := m.Accept(context.Background(), "tok", "Bob", 2500)
	if !errors.Is(err, models.ErrNotAuthenticated) {
		t.Fatalf("Accept() error = %v, want ErrNotAuthenticated", err)
	}
	if len(authority.calls) != 0 {
		t.Errorf("Accept() made remote calls %v, want none", authority.calls)
	}
}

func TestAcceptUpsertsProfileBeforeAccepting(t *testing.T) {
	authority := &fakeAuthority{}
	refresher := &fakeRefresher{}
	m := NewManager(authority, &fakeIdentity{user: onboardedUser()}, refresher)
	m.SetPendingToken("tok")

	result, err := m.Accept(context.Background(), "tok", "Bob", 2500)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if result.GroupID != "group-1" {
		t.Errorf("Accept() group = %q, want %q", result.GroupID, "group-1")
	}

	want := []string{"upsert", "accept"}
	if len(authority.calls) != len(want) {
		t.Fatalf("Accept() calls = %v, want %v", authority.calls, want)
	}
	for i := range want {
		if authority.calls[i] != want[i] {
			t.Fatalf("Accept() calls = %v, want %v", authority.calls, want)
		}
	}

	if refresher.calls != 1 {
		t.Errorf("group list refreshed %d times, want 1", refresher.calls)
	}
	if m.PendingToken() != "" {
		t.Errorf("pending token = %q, want cleared", m.PendingToken())
	}
}

func TestAcceptStopsWhenUpsertFails(t *testing.T) {
	authority := &fakeAuthority{upsertErr: &models.TransportError{Op: "PUT /v1/profile", Err: errors.New("timeout")}}
	m := NewManager(authority, &fakeIdentity{user: onboardedUser()}, nil)

	_, err := m.Accept(context.Background(), "tok", "Bob", 2500)
	if !models.IsTransport(err) {
		t.Fatalf("Accept() error = %v, want transport error", err)
	}
	for _, call := range authority.calls {
		if call == "accept" {
			t.Fatal("Accept() reached the remote accept after a failed upsert")
		}
	}
}

func TestAcceptSurfacesRecoverableErrors(t *testing.T) {
	for _, sentinel := range []error{
		models.ErrInvalidToken,
		models.ErrExpiredToken,
		models.ErrAlreadyConsumed,
		models.ErrAlreadyMember,
	} {
		authority := &fakeAuthority{acceptErr: sentinel}
		refresher := &fakeRefresher{}
		m := NewManager(authority, &fakeIdentity{user: onboardedUser()}, refresher)

		_, err := m.Accept(context.Background(), "tok", "Bob", 2500)
		if !errors.Is(err, sentinel) {
			t.Errorf("Accept() error = %v, want %v", err, sentinel)
		}
		if refresher.calls != 0 {
			t.Errorf("group list refreshed after failed accept (%v)", sentinel)
		}
	}
}

func TestPreview(t *testing.T) {
	authority := &fakeAuthority{preview: &models.InvitationPreview{GroupName: "Mon Foyer", CreatorPseudo: "Alice"}}
	m := NewManager(authority, &fakeIdentity{}, nil)

	preview, err := m.Preview(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if preview.GroupName != "Mon Foyer" {
		t.Errorf("Preview() group = %q, want %q", preview.GroupName, "Mon Foyer")
	}
}

func TestPreviewEmptyToken(t *testing.T) {
	authority := &fakeAuthority{}
	m := NewManager(authority, &fakeIdentity{}, nil)

	if _, err := m.Preview(context.Background(), "  "); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Preview() error = %v, want ErrValidation", err)
	}
	if len(authority.calls) != 0 {
		t.Errorf("Preview() made remote calls %v, want none", authority.calls)
	}
}

func TestPreviewUnknownToken(t *testing.T) {
	m := NewManager(&fakeAuthority{}, &fakeIdentity{}, nil)

	preview, err := m.Preview(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if preview != nil {
		t.Errorf("Preview() = %+v, want nil for unknown token", preview)
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name        string
		identity    *fakeIdentity
		want        Destination
		wantPending string
	}{
		{
			name:        "no session parks token and routes to login",
			identity:    &fakeIdentity{err: models.ErrNotAuthenticated},
			want:        DestinationLogin,
			wantPending: "tok",
		},
		{
			name:        "no profile parks token and routes to onboarding",
			identity:    &fakeIdentity{user: &models.User{ID: "user-1", Email: "bob@example.com"}},
			want:        DestinationOnboarding,
			wantPending: "tok",
		},
		{
			name:     "onboarded user accepts directly",
			identity: &fakeIdentity{user: onboardedUser()},
			want:     DestinationAccept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(&fakeAuthority{}, tt.identity, nil)

			dest, err := m.Route(context.Background(), "tok")
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if dest != tt.want {
				t.Errorf("Route() = %v, want %v", dest, tt.want)
			}
			if m.PendingToken() != tt.wantPending {
				t.Errorf("pending token = %q, want %q", m.PendingToken(), tt.wantPending)
			}
		})
	}
}

func TestResolveUnknownOutcome(t *testing.T) {
	t.Run("consumed token counts as success", func(t *testing.T) {
		authority := &fakeAuthority{preview: &models.InvitationPreview{GroupName: "Mon Foyer", IsConsumed: true}}
		refresher := &fakeRefresher{}
		m := NewManager(authority, &fakeIdentity{user: onboardedUser()}, refresher)
		m.SetPendingToken("tok")

		outcome, err := m.ResolveUnknownOutcome(context.Background(), "tok")
		if err != nil {
			t.Fatalf("ResolveUnknownOutcome() error = %v", err)
		}
		if outcome != OutcomeConsumed {
			t.Errorf("outcome = %v, want OutcomeConsumed", outcome)
		}
		if refresher.calls != 1 {
			t.Errorf("group list refreshed %d times, want 1", refresher.calls)
		}
		if m.PendingToken() != "" {
			t.Errorf("pending token = %q, want cleared", m.PendingToken())
		}
	})

	t.Run("active token stays retriable", func(t *testing.T) {
		authority := &fakeAuthority{preview: &models.InvitationPreview{GroupName: "Mon Foyer"}}
		m := NewManager(authority, &fakeIdentity{user: onboardedUser()}, nil)

		outcome, err := m.ResolveUnknownOutcome(context.Background(), "tok")
		if err != nil {
			t.Fatalf("ResolveUnknownOutcome() error = %v", err)
		}
		if outcome != OutcomeRetriable {
			t.Errorf("outcome = %v, want OutcomeRetriable", outcome)
		}
	})

	t.Run("vanished token reports invalid", func(t *testing.T) {
		m := NewManager(&fakeAuthority{}, &fakeIdentity{user: onboardedUser()}, nil)

		if _, err := m.ResolveUnknownOutcome(context.Background(), "tok"); !errors.Is(err, models.ErrInvalidToken) {
			t.Fatalf("ResolveUnknownOutcome() error = %v, want ErrInvalidToken", err)
		}
	})
}
