package social

import (
	"net/url"
	"regexp"
	"strings"
)

// 支持的 URN 形态：urn:li:activity|share|ugcPost:<digits>。
var (
	urnRe          = regexp.MustCompile(`urn:li:(activity|share|ugcPost):(\d+)`)
	activityPathRe = regexp.MustCompile(`activity-(\d+)`)
)

// NormalizePostURN 从用户粘贴的 LinkedIn 链接或原始 URN 中提取规范标识。
// 先做百分号解码再匹配；无法识别的输入返回 false。
func NormalizePostURN(input string) (string, bool) {
	kind, id, ok := extract(input)
	if !ok {
		return "", false
	}
	return "urn:li:" + kind + ":" + id, true
}

func extract(input string) (kind, id string, ok bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", "", false
	}
	if decoded, err := url.QueryUnescape(s); err == nil {
		s = decoded
	}

	if m := urnRe.FindStringSubmatch(s); m != nil {
		return m[1], m[2], true
	}

	// 链接路径中的 activity-<digits> 作为回退，仅对 LinkedIn 域名生效。
	if strings.Contains(strings.ToLower(s), "linkedin.com") {
		if m := activityPathRe.FindStringSubmatch(s); m != nil {
			return "activity", m[1], true
		}
	}

	return "", "", false
}

// ExtractPostURNs 批量规范化：按提取出的数字 ID 去重，
// 保留首次出现顺序，结果数量不超过 max。
func ExtractPostURNs(inputs []string, max int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		kind, id, ok := extract(input)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, "urn:li:"+kind+":"+id)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
