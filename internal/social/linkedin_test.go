package social

import (
	"reflect"
	"testing"
)

func TestNormalizePostURN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			"post url with activity segment",
			"https://www.linkedin.com/posts/company_activity-7123456789012345678-AbCd",
			"urn:li:activity:7123456789012345678",
			true,
		},
		{
			"raw urn",
			"urn:li:share:123456",
			"urn:li:share:123456",
			true,
		},
		{
			"ugcPost urn embedded in url",
			"https://www.linkedin.com/embed/feed/update/urn:li:ugcPost:987654",
			"urn:li:ugcPost:987654",
			true,
		},
		{
			"percent encoded urn",
			"https://www.linkedin.com/feed/update/urn%3Ali%3Aactivity%3A555",
			"urn:li:activity:555",
			true,
		},
		{"unrelated url", "https://example.com/post/1", "", false},
		{"empty", "   ", "", false},
		{"activity segment outside linkedin", "https://example.com/activity-123", "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := NormalizePostURN(tc.input)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (%q)", tc.ok, ok, got)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExtractPostURNsDedupAndCap(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.linkedin.com/posts/a_activity-111-x",
		"urn:li:activity:222",
		"urn:li:activity:111", // duplicate id, first-seen form wins
		"not a link",
		"urn:li:share:333",
		"urn:li:ugcPost:444",
	}

	got := ExtractPostURNs(inputs, 3)
	want := []string{
		"urn:li:activity:111",
		"urn:li:activity:222",
		"urn:li:share:333",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := ExtractPostURNs(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty result for nil input, got %v", got)
	}
}
