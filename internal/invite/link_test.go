package invite

import (
	"errors"
	"testing"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

func TestBuildInviteLink(t *testing.T) {
	link := BuildInviteLink("equimapp", "abc123")
	if link != "equimapp://invite/abc123" {
		t.Errorf("BuildInviteLink() = %q, want %q", link, "equimapp://invite/abc123")
	}
}

func TestParseInviteLink(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "deep link", link: "equimapp://invite/tok-1", want: "tok-1"},
		{name: "https link", link: "https://invite/tok-2", want: "tok-2"},
		{name: "trailing slash trimmed", link: "equimapp://invite/tok-3/", want: "tok-3"},
		{name: "bare token", link: "tok-4", want: "tok-4"},
		{name: "surrounding whitespace", link: "  equimapp://invite/tok-5  ", want: "tok-5"},
		{name: "empty", link: "", wantErr: true},
		{name: "wrong host", link: "equimapp://join/tok-6", wantErr: true},
		{name: "no token segment", link: "equimapp://invite/", wantErr: true},
		{name: "path without scheme", link: "invite/tok-7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInviteLink(tt.link)
			if tt.wantErr {
				if !errors.Is(err, models.ErrValidation) {
					t.Fatalf("ParseInviteLink(%q) error = %v, want ErrValidation", tt.link, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInviteLink(%q) error = %v", tt.link, err)
			}
			if got != tt.want {
				t.Errorf("ParseInviteLink(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}

func TestLinkRoundTrip(t *testing.T) {
	token := "f3a9c2d4e5b6"
	got, err := ParseInviteLink(BuildInviteLink("equimapp", token))
	if err != nil {
		t.Fatalf("ParseInviteLink() error = %v", err)
	}
	if got != token {
		t.Errorf("round trip = %q, want %q", got, token)
	}
}
