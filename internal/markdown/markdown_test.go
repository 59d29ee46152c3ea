package markdown

import (
	"strings"
	"testing"
)

func TestRenderHTMLEmptyInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		if got := RenderHTML(input); got != "" {
			t.Fatalf("expected empty output for %q, got %q", input, got)
		}
	}
}

func TestRenderHTMLBlocks(t *testing.T) {
	t.Parallel()

	input := "# Title\n\nFirst line\nsecond line\n\n- one\n- two\n1. first\n2. second"
	got := RenderHTML(input)

	for _, want := range []string{
		"<h1>Title</h1>",
		"<p>First line<br>second line</p>",
		"<ul><li>one</li><li>two</li></ul>",
		"<ol><li>first</li><li>second</li></ol>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestRenderHTMLBulletAcceptsTab(t *testing.T) {
	t.Parallel()

	got := RenderHTML("-\tone\n-\ttwo")
	if !strings.Contains(got, "<ul><li>one</li><li>two</li></ul>") {
		t.Fatalf("expected tab-delimited bullets parsed as list, got %q", got)
	}
}

func TestRenderHTMLHeadingLevelClamped(t *testing.T) {
	t.Parallel()

	got := RenderHTML("####### deep heading")
	if !strings.Contains(got, "<h6>deep heading</h6>") {
		t.Fatalf("expected heading clamped to h6, got %q", got)
	}
}

func TestRenderHTMLEscapesScript(t *testing.T) {
	t.Parallel()

	got := RenderHTML("hello <script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Fatalf("raw script tag leaked into output: %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped script tag, got %q", got)
	}
}

func TestRenderHTMLLinkSchemeAllowList(t *testing.T) {
	t.Parallel()

	got := RenderHTML("[a](javascript:alert(1))")
	if strings.Contains(got, "javascript:") {
		t.Fatalf("javascript scheme leaked into output: %q", got)
	}
	if !strings.Contains(got, "a") {
		t.Fatalf("expected label text preserved, got %q", got)
	}

	got = RenderHTML("[docs](https://example.com/x?a=1&b=2)")
	if !strings.Contains(got, `<a href="https://example.com/x?a=1&amp;b=2" target="_blank" rel="noopener noreferrer">docs</a>`) {
		t.Fatalf("expected anchor with rel/target, got %q", got)
	}

	got = RenderHTML("[mail](MAILTO:hi@example.com)")
	if !strings.Contains(got, "<a href=") {
		t.Fatalf("expected case-insensitive scheme match, got %q", got)
	}
}

func TestRenderHTMLCodeFenceNotProcessed(t *testing.T) {
	t.Parallel()

	got := RenderHTML("```\n**not bold**\n```")
	if strings.Contains(got, "<strong>") {
		t.Fatalf("inline rules ran inside code fence: %q", got)
	}
	if !strings.Contains(got, "**not bold**") {
		t.Fatalf("expected literal fence content, got %q", got)
	}
	if !strings.Contains(got, "<pre><code>") {
		t.Fatalf("expected pre/code block, got %q", got)
	}
}

func TestRenderHTMLUnterminatedFence(t *testing.T) {
	t.Parallel()

	got := RenderHTML("```\nabc")
	if !strings.Contains(got, "<pre><code>abc</code></pre>") {
		t.Fatalf("expected closed code block with trailing content, got %q", got)
	}
}

func TestRenderHTMLInlineOrdering(t *testing.T) {
	t.Parallel()

	got := RenderHTML("**bold** and *italic* and `x < y`")
	for _, want := range []string{
		"<strong>bold</strong>",
		"<em>italic</em>",
		"<code>x &lt; y</code>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
	// 确认加粗没有被斜体规则部分吞掉。
	if strings.Contains(got, "<em><strong>") || strings.Contains(got, "*<em>") {
		t.Fatalf("bold consumed by italic rule: %q", got)
	}
}

func TestRenderHTMLEmphasisInsideLinkAttributesNotMatched(t *testing.T) {
	t.Parallel()

	// 链接 URL 含星号时，生成的 href 不能被后续强调规则改写。
	got := RenderHTML("[x](https://example.com/a*b) plain *em* [y](https://example.com/c*d)")
	if !strings.Contains(got, `href="https://example.com/a*b"`) {
		t.Fatalf("link url mangled: %q", got)
	}
	if !strings.Contains(got, `href="https://example.com/c*d"`) {
		t.Fatalf("second link url mangled: %q", got)
	}
	if !strings.Contains(got, "<em>em</em>") {
		t.Fatalf("expected emphasis between links, got %q", got)
	}
}

func TestStripBasics(t *testing.T) {
	t.Parallel()

	input := "# Title\n\n- **bold** item\n1. [link](https://example.com)\n\n```\ncode here\n```\nafter `span`"
	got := Strip(input)
	want := "Title bold item link code here after span"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStripIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"# Title\n**bold** *em* `code` [a](https://e.com)",
		"***nested***",
		"**[label](https://e.com)** and *[x](mailto:a@b.c)*",
		"plain text already stripped",
		"",
		// 叠加的行首标记也必须一次拆干净。
		"1. 2. foo",
		"- - foo",
		"- 1. foo",
		"# - 1. foo",
	}
	for _, input := range inputs {
		once := Strip(input)
		twice := Strip(once)
		if once != twice {
			t.Fatalf("strip not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestStripNestedLineMarkers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
	}{
		{"1. 2. foo", "foo"},
		{"- - foo", "foo"},
		{"- 1. foo", "foo"},
		{"# - 1. foo", "foo"},
	}
	for _, tc := range cases {
		if got := Strip(tc.input); got != tc.want {
			t.Fatalf("Strip(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestStripCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	got := Strip("a\n\n\nb\t\tc   d")
	if got != "a b c d" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}
