package embeds

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"meetup-board/internal/model"
)

func TestReplaceNormalizesAndCaps(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	s := NewService(store, Config{MaxEmbeds: 2})

	urns, err := s.Replace(context.Background(), []string{
		"https://www.linkedin.com/posts/acme_activity-111-x",
		"  urn:li:share:222  ",
		"urn:li:activity:333", // over capacity
		"https://example.com/not-linkedin",
	}, "Admin@Example.com")
	if err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	want := []string{"urn:li:activity:111", "urn:li:share:222"}
	if !reflect.DeepEqual(urns, want) {
		t.Fatalf("expected %v, got %v", want, urns)
	}
	if !reflect.DeepEqual(store.replaced, want) {
		t.Fatalf("store received %v", store.replaced)
	}
	if store.addedBy != "admin@example.com" {
		t.Fatalf("expected lowercased admin email, got %q", store.addedBy)
	}
}

func TestReplaceRejectsUnrecognizableInput(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	s := NewService(store, Config{})

	if _, err := s.Replace(context.Background(), []string{"https://example.com/x"}, "a@b.c"); err == nil {
		t.Fatalf("expected error for unrecognizable input")
	}
	if store.calls != 0 {
		t.Fatalf("store should not be written on validation failure")
	}
}

func TestReplaceAllowsClearing(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	s := NewService(store, Config{})

	urns, err := s.Replace(context.Background(), nil, "a@b.c")
	if err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if len(urns) != 0 || store.calls != 1 {
		t.Fatalf("expected explicit clear to reach store")
	}
}

// --- stubs ---

type stubStore struct {
	replaced []string
	addedBy  string
	calls    int
	err      error
}

func (s *stubStore) ReplaceSocialEmbeds(ctx context.Context, urns []string, addedBy string) error {
	if s.err != nil {
		return s.err
	}
	s.calls++
	s.replaced = urns
	s.addedBy = addedBy
	return nil
}

func (s *stubStore) ListSocialEmbeds(ctx context.Context) ([]model.SocialEmbed, error) {
	if s.err != nil {
		return nil, errors.New("list failed")
	}
	out := make([]model.SocialEmbed, 0, len(s.replaced))
	for i, urn := range s.replaced {
		out = append(out, model.SocialEmbed{URN: urn, Position: i})
	}
	return out, nil
}
