package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	codeSpanRe = regexp.MustCompile("`([^`\n]+)`")
	linkRe     = regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\n]+)\)`)
	boldRe     = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicRe   = regexp.MustCompile(`\*([^*\n]+)\*`)
)

// RenderHTML 将受限 Markdown 方言渲染为安全的 HTML 片段。
// 纯函数，无网络与存储访问；空白输入返回空字符串。
func RenderHTML(input string) string {
	text := strings.TrimSpace(normalizeNewlines(input))
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	var blocks []string

	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "":
			i++
		case strings.HasPrefix(trimmed, "```"):
			// 未闭合的围栏一直消费到输入结尾。
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				code = append(code, lines[i])
				i++
			}
			if i < len(lines) {
				i++
			}
			blocks = append(blocks, "<pre><code>"+escapeHTML(strings.Join(code, "\n"))+"</code></pre>")
		case headingLevel(trimmed) > 0:
			level := headingLevel(trimmed)
			body := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			blocks = append(blocks, fmt.Sprintf("<h%d>%s</h%d>", level, renderInline(body), level))
			i++
		case isBulletItem(trimmed) || isOrderedItem(trimmed):
			ordered := isOrderedItem(trimmed)
			var items []string
			for i < len(lines) {
				t := strings.TrimSpace(lines[i])
				if ordered != isOrderedItem(t) || (!ordered && !isBulletItem(t)) {
					break
				}
				body := t[2:]
				if ordered {
					body = stripOrderedMarker(t)
				}
				items = append(items, "<li>"+renderInline(strings.TrimSpace(body))+"</li>")
				i++
			}
			tag := "ul"
			if ordered {
				tag = "ol"
			}
			blocks = append(blocks, "<"+tag+">"+strings.Join(items, "")+"</"+tag+">")
		default:
			var para []string
			for i < len(lines) {
				t := strings.TrimSpace(lines[i])
				if t == "" || strings.HasPrefix(t, "```") || headingLevel(t) > 0 || isBulletItem(t) || isOrderedItem(t) {
					break
				}
				para = append(para, t)
				i++
			}
			blocks = append(blocks, "<p>"+strings.ReplaceAll(renderInline(strings.Join(para, "\n")), "\n", "<br>")+"</p>")
		}
	}

	return strings.Join(blocks, "\n")
}

// headingLevel 返回标题级别，非标题行返回 0。级别固定收敛到 1-6。
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || (line[n] != ' ' && line[n] != '\t') {
		return 0
	}
	if n > 6 {
		return 6
	}
	return n
}

// isBulletItem 识别 "- " 或 "* " 开头的无序列表项。
// "*text*" 这类斜体行标记后没有空白，不会被误判。
func isBulletItem(line string) bool {
	return len(line) > 2 && (line[0] == '-' || line[0] == '*') && (line[1] == ' ' || line[1] == '\t')
}

func isOrderedItem(line string) bool {
	n := 0
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	return n > 0 && n+1 < len(line) && line[n] == '.' && line[n+1] == ' '
}

func stripOrderedMarker(line string) string {
	idx := strings.Index(line, ".")
	return strings.TrimSpace(line[idx+1:])
}

// renderInline 对单行或整段文本执行行内规则。
// 先整体转义，再依次处理代码片段、链接、加粗、斜体；
// 已生成的 HTML 用占位符保护，避免被后续规则二次匹配。
func renderInline(text string) string {
	out := escapeHTML(text)

	var tokens []string
	stash := func(html string) string {
		tokens = append(tokens, html)
		return "\x00" + strconv.Itoa(len(tokens)-1) + "\x00"
	}

	out = codeSpanRe.ReplaceAllStringFunc(out, func(m string) string {
		return stash("<code>" + m[1:len(m)-1] + "</code>")
	})

	out = linkRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		label, url := sub[1], sub[2]
		if !allowedScheme(url) {
			// 协议不在白名单内时静默降级为纯文本。
			return label
		}
		return stash(`<a href="` + url + `" target="_blank" rel="noopener noreferrer">` + label + `</a>`)
	})

	// 加粗先于斜体，避免 ** 被斜体规则拆开。
	out = boldRe.ReplaceAllStringFunc(out, func(m string) string {
		return stash("<strong>" + m[2:len(m)-2] + "</strong>")
	})
	out = italicRe.ReplaceAllStringFunc(out, func(m string) string {
		return stash("<em>" + m[1:len(m)-1] + "</em>")
	})

	// 逆序还原：外层占位符先展开，内层随后补齐。
	for i := len(tokens) - 1; i >= 0; i-- {
		out = strings.ReplaceAll(out, "\x00"+strconv.Itoa(i)+"\x00", tokens[i])
	}
	return out
}

// allowedScheme 仅放行 http/https/mailto，前缀大小写不敏感。
func allowedScheme(url string) bool {
	lower := strings.ToLower(strings.TrimSpace(url))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:")
}

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Strip 将同一方言转为纯文本预览：去掉围栏与行首标记，
// 链接与代码片段仅保留内部文本，所有空白折叠为单个空格。
// 对已经剥离过的文本再次调用结果不变。
func Strip(input string) string {
	text := normalizeNewlines(input)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "```") {
			continue
		}
		// 行首标记剥到不动点，"- 1. foo" 这类叠加标记一次调用就拆干净。
		for {
			next := t
			if headingLevel(next) > 0 {
				next = strings.TrimSpace(strings.TrimLeft(next, "#"))
			} else if isBulletItem(next) {
				next = strings.TrimSpace(next[2:])
			} else if isOrderedItem(next) {
				next = stripOrderedMarker(next)
			}
			if next == t {
				break
			}
			t = next
		}
		lines = append(lines, t)
	}
	out := strings.Join(lines, " ")

	// 反复展开直到嵌套语法全部拆掉，保证幂等。
	for {
		next := stripInline(out)
		if next == out {
			break
		}
		out = next
	}

	return strings.Join(strings.Fields(out), " ")
}

func stripInline(s string) string {
	s = linkRe.ReplaceAllString(s, "$1")
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = codeSpanRe.ReplaceAllString(s, "$1")
	return s
}
