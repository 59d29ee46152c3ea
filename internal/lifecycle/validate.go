package lifecycle

import (
	"net/mail"
	"regexp"
	"strings"

	"meetup-board/internal/model"
)

// ValidationError 表示调用方数据未通过前置校验，消息原样回传给界面。
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DraftInput 表示草稿表单提交的数据。
type DraftInput struct {
	Title          string
	CompanyName    string
	CompanyWebsite string
	BrandLogoURL   string
	BrandColors    map[string]string
	LocationText   string
	LocationMode   string
	EmploymentType string
	SeniorityLevel string

	SalaryMin      *int
	SalaryMax      *int
	SalaryCurrency string
	SalaryPeriod   string

	Summary          string
	Responsibilities string
	Requirements     string
	NiceToHave       string

	ApplicationMode  model.ApplicationMode
	ExternalApplyURL string
	EasyApplyEmail   string
	EasyApplyFields  []string

	PostedByEmail  string
	PostedByUserID string
}

// validateDraft 依次执行全部校验规则，返回第一条失败消息。
func validateDraft(in DraftInput) error {
	if len(strings.TrimSpace(in.Title)) < 4 {
		return ValidationError{Msg: "title must be at least 4 characters"}
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		return ValidationError{Msg: "company name is required"}
	}
	if strings.TrimSpace(in.LocationText) == "" {
		return ValidationError{Msg: "location is required"}
	}
	if strings.TrimSpace(in.Summary) == "" {
		return ValidationError{Msg: "summary is required"}
	}
	if strings.TrimSpace(in.Responsibilities) == "" {
		return ValidationError{Msg: "responsibilities are required"}
	}
	if strings.TrimSpace(in.Requirements) == "" {
		return ValidationError{Msg: "requirements are required"}
	}
	if !validEmail(in.PostedByEmail) {
		return ValidationError{Msg: "a valid poster email is required"}
	}

	mode := in.ApplicationMode
	if mode == model.ApplyExternal || mode == model.ApplyBoth {
		if !validHTTPURL(in.ExternalApplyURL) {
			return ValidationError{Msg: "a valid application URL is required"}
		}
	}
	if mode == model.ApplyEasy || mode == model.ApplyBoth {
		if !validEmail(resolveEasyApplyEmail(in)) {
			return ValidationError{Msg: "a valid easy-apply email is required"}
		}
		if !containsField(in.EasyApplyFields, "email") {
			return ValidationError{Msg: "easy-apply must collect the applicant email"}
		}
	}

	if in.CompanyWebsite != "" && !validHTTPURL(in.CompanyWebsite) {
		return ValidationError{Msg: "company website must be a valid URL"}
	}
	if in.BrandLogoURL != "" && !validHTTPURL(in.BrandLogoURL) {
		return ValidationError{Msg: "brand logo must be a valid URL"}
	}
	for _, color := range in.BrandColors {
		if color != "" && !hexColorRe.MatchString(color) {
			return ValidationError{Msg: "brand colors must be hex values"}
		}
	}
	return nil
}

// resolveEasyApplyEmail 显式字段优先，缺省回退到发布者邮箱。
func resolveEasyApplyEmail(in DraftInput) string {
	if strings.TrimSpace(in.EasyApplyEmail) != "" {
		return in.EasyApplyEmail
	}
	return in.PostedByEmail
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func validHTTPURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func containsField(fields []string, want string) bool {
	for _, f := range fields {
		if strings.EqualFold(strings.TrimSpace(f), want) {
			return true
		}
	}
	return false
}
