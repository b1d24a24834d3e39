package sqlite

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "equimapp-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email, pseudo string, income float64) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Pseudo: pseudo, Income: income}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func createGroup(t *testing.T, store *SQLiteStore, creator *models.User) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Mon Foyer", Currency: "EUR", CreatorID: creator.ID}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestCreateGroupAddsCreatorMembership(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	group := createGroup(t, store, alice)

	got, err := store.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Members) != 1 {
		t.Fatalf("members = %d, want 1", len(got.Members))
	}
	m := got.Members[0]
	if m.UserID != alice.ID {
		t.Errorf("member user id = %q, want %q", m.UserID, alice.ID)
	}
	if m.IsPhantom {
		t.Error("creator membership must not be phantom")
	}
	// Real members hydrate pseudo/income from the profile.
	if m.Pseudo != "Alice" || m.Income != 3000 {
		t.Errorf("member profile = %q/%v, want Alice/3000", m.Pseudo, m.Income)
	}
}

func TestGetGroupNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetGroup(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPhantomMember(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	group := createGroup(t, store, alice)

	err := store.AddMember(context.Background(), &models.Member{
		GroupID:   group.ID,
		Pseudo:    "Mamie",
		Income:    1200,
		IsPhantom: true,
	})
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	got, err := store.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(got.Members))
	}
	var phantom *models.Member
	for i := range got.Members {
		if got.Members[i].IsPhantom {
			phantom = &got.Members[i]
		}
	}
	if phantom == nil {
		t.Fatal("phantom member not found")
	}
	if phantom.UserID != "" {
		t.Errorf("phantom user id = %q, want empty", phantom.UserID)
	}
	if phantom.Pseudo != "Mamie" || phantom.Income != 1200 {
		t.Errorf("phantom row = %q/%v, want Mamie/1200", phantom.Pseudo, phantom.Income)
	}
}

func TestPhantomWithUserIDRejected(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	group := createGroup(t, store, alice)

	err := store.AddMember(context.Background(), &models.Member{
		GroupID:   group.ID,
		UserID:    alice.ID,
		Pseudo:    "Alice bis",
		IsPhantom: true,
	})
	if err == nil {
		t.Fatal("expected CHECK violation for phantom member with user id")
	}
}

func TestAcceptInvitation(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	bob := createUser(t, store, "bob@example.com", "Bob", 2000)
	group := createGroup(t, store, alice)

	inv := &models.Invitation{GroupID: group.ID, CreatorID: alice.ID}
	if err := store.CreateInvitation(context.Background(), inv); err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	if len(inv.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(inv.Token))
	}

	member, err := store.AcceptInvitation(context.Background(), inv.Token, bob, time.Now().Unix())
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if member.GroupID != group.ID || member.UserID != bob.ID {
		t.Errorf("member = %+v, want bob in group", member)
	}

	got, err := store.GetInvitationByToken(context.Background(), inv.Token)
	if err != nil {
		t.Fatalf("GetInvitationByToken failed: %v", err)
	}
	if got.ConsumedAt == 0 || got.AcceptedBy != bob.ID {
		t.Errorf("invitation not consumed: %+v", got)
	}
}

func TestAcceptInvitationErrors(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	bob := createUser(t, store, "bob@example.com", "Bob", 2000)
	group := createGroup(t, store, alice)
	now := time.Now().Unix()

	t.Run("unknown token", func(t *testing.T) {
		_, err := store.AcceptInvitation(context.Background(), "bogus-token", bob, now)
		if !errors.Is(err, models.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		inv := &models.Invitation{GroupID: group.ID, CreatorID: alice.ID, ExpiresAt: now - 60}
		if err := store.CreateInvitation(context.Background(), inv); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		_, err := store.AcceptInvitation(context.Background(), inv.Token, bob, now)
		if !errors.Is(err, models.ErrExpiredToken) {
			t.Errorf("err = %v, want ErrExpiredToken", err)
		}
	})

	t.Run("already member", func(t *testing.T) {
		inv := &models.Invitation{GroupID: group.ID, CreatorID: alice.ID}
		if err := store.CreateInvitation(context.Background(), inv); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		_, err := store.AcceptInvitation(context.Background(), inv.Token, alice, now)
		if !errors.Is(err, models.ErrAlreadyMember) {
			t.Errorf("err = %v, want ErrAlreadyMember", err)
		}
	})

	t.Run("already consumed", func(t *testing.T) {
		inv := &models.Invitation{GroupID: group.ID, CreatorID: alice.ID}
		if err := store.CreateInvitation(context.Background(), inv); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if _, err := store.AcceptInvitation(context.Background(), inv.Token, bob, now); err != nil {
			t.Fatalf("first accept failed: %v", err)
		}
		chloe := createUser(t, store, "chloe@example.com", "Chloe", 1500)
		_, err := store.AcceptInvitation(context.Background(), inv.Token, chloe, now)
		if !errors.Is(err, models.ErrAlreadyConsumed) {
			t.Errorf("err = %v, want ErrAlreadyConsumed", err)
		}
	})
}

// Two devices racing to consume the same token: exactly one success.
func TestAcceptInvitationRace(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	bob := createUser(t, store, "bob@example.com", "Bob", 2000)
	chloe := createUser(t, store, "chloe@example.com", "Chloe", 1500)
	group := createGroup(t, store, alice)

	inv := &models.Invitation{GroupID: group.ID, CreatorID: alice.ID}
	if err := store.CreateInvitation(context.Background(), inv); err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	now := time.Now().Unix()
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, user := range []*models.User{bob, chloe} {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			_, errs[i] = store.AcceptInvitation(context.Background(), inv.Token, u, now)
		}(i, user)
	}
	wg.Wait()

	var successes, consumed int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrAlreadyConsumed) || errors.Is(err, models.ErrAlreadyMember):
			consumed++
		default:
			t.Errorf("unexpected accept error: %v", err)
		}
	}
	if successes != 1 || consumed != 1 {
		t.Errorf("successes = %d, recoverable failures = %d; want 1 and 1", successes, consumed)
	}
}

func TestUpsertProfileIdempotent(t *testing.T) {
	store := setupStore(t)
	bob := createUser(t, store, "bob@example.com", "", 0)

	for i := 0; i < 2; i++ {
		if err := store.UpsertProfile(context.Background(), bob.ID, "Bob", 2500, true); err != nil {
			t.Fatalf("UpsertProfile failed: %v", err)
		}
	}
	got, err := store.GetUserByID(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Pseudo != "Bob" || got.Income != 2500 || !got.IncomeShared {
		t.Errorf("profile = %+v, want Bob/2500/shared", got)
	}
}

func TestListGroupsForUser(t *testing.T) {
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com", "Alice", 3000)
	g1 := createGroup(t, store, alice)
	g2 := createGroup(t, store, alice)

	groups, err := store.ListGroupsForUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	ids := map[string]bool{groups[0].ID: true, groups[1].ID: true}
	if !ids[g1.ID] || !ids[g2.ID] {
		t.Errorf("listed ids = %v, want %s and %s", ids, g1.ID, g2.ID)
	}
}
