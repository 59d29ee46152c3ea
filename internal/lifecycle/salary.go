package lifecycle

import (
	"fmt"
	"strings"
)

// FormatSalaryRange 生成薪资展示文案，纯函数。
// min/max 均为空表示薪资不公开。
func FormatSalaryRange(min, max *int, currency, period string) string {
	if min == nil && max == nil {
		return "Salary not disclosed"
	}

	var base string
	switch {
	case min != nil && max != nil:
		base = fmt.Sprintf("%d – %d", *min, *max)
	case min != nil:
		base = fmt.Sprintf("From %d", *min)
	default:
		base = fmt.Sprintf("Up to %d", *max)
	}

	if cur := strings.TrimSpace(currency); cur != "" {
		base += " " + cur
	}
	if suffix := periodSuffix(period); suffix != "" {
		base += " " + suffix
	}
	return base
}

func periodSuffix(period string) string {
	period = strings.TrimSpace(period)
	switch period {
	case "":
		return ""
	case "year":
		return "/yr"
	default:
		return "/" + period
	}
}
