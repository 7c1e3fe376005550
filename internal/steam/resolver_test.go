package steam

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/playlog/steamsync/internal/shared"
)

func TestResolveProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Equivalent Forms", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("vanityurl"); got != "gaben" {
				t.Errorf("unexpected vanityurl: %s", got)
			}
			w.Write([]byte(`{"response":{"success":1,"steamid":"76561197960287930"}}`))
		}))

		forms := []string{
			"https://steamcommunity.com/profiles/76561197960287930",
			"https://steamcommunity.com/profiles/76561197960287930/",
			"https://steamcommunity.com/wishlist/profiles/76561197960287930",
			"https://steamcommunity.com/id/gaben",
			"gaben",
			"76561197960287930",
		}
		for _, form := range forms {
			id, err := client.ResolveProfile(ctx, form)
			if err != nil {
				t.Errorf("form %q: unexpected error %v", form, err)
				continue
			}
			if id != "76561197960287930" {
				t.Errorf("form %q resolved to %s", form, id)
			}
		}
	})

	t.Run("Unknown Vanity Name", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"success":42,"message":"No match"}}`))
		}))

		_, err := client.ResolveProfile(ctx, "nobody-here")
		if !errors.Is(err, shared.ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("Invalid Formats", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for invalid formats")
		}))

		invalid := []string{
			"",
			"   ",
			"https://steamcommunity.com/groups/valve",
			"https://steamcommunity.com/profiles/notanumber",
			"has spaces",
			"emoji🙂name",
		}
		for _, form := range invalid {
			_, err := client.ResolveProfile(ctx, form)
			if !errors.Is(err, shared.ErrInvalidProfileFormat) {
				t.Errorf("form %q: expected ErrInvalidProfileFormat, got %v", form, err)
			}
		}
	})

	t.Run("Numeric Ids Skip The Network", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for numeric ids")
		}))

		id, err := client.ResolveProfile(ctx, "12345")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != "12345" {
			t.Errorf("expected 12345, got %s", id)
		}
	})
}

func TestParseProfileRef(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		id     string
		vanity string
	}{
		{"Profiles URL", "https://steamcommunity.com/profiles/765611", "765611", ""},
		{"Wishlist URL", "https://steamcommunity.com/wishlist/profiles/765611", "765611", ""},
		{"Vanity URL", "https://steamcommunity.com/id/some_name", "", "some_name"},
		{"HTTP Scheme", "http://steamcommunity.com/id/other-name", "", "other-name"},
		{"Bare Digits", "765611", "765611", ""},
		{"Bare Vanity", "some_name", "", "some_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, vanity, err := parseProfileRef(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.id || vanity != tc.vanity {
				t.Errorf("got (%q, %q), want (%q, %q)", id, vanity, tc.id, tc.vanity)
			}
		})
	}
}

func TestCoverURL(t *testing.T) {
	want := "https://cdn.cloudflare.steamstatic.com/steam/apps/220/header.jpg"
	if got := CoverURL("220"); got != want {
		t.Errorf("CoverURL(220) = %q, want %q", got, want)
	}
}
