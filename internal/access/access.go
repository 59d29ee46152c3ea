package access

import "strings"

// Level 表示一次调用携带的权限信息。
// 特权操作显式接收 Level 参数，而不是在内部重新推导会话状态。
type Level struct {
	CanManage bool
	Identity  string
}

// Checker 根据管理员邮箱白名单解析权限。
type Checker struct {
	admins map[string]struct{}
}

// NewChecker 创建 Checker，邮箱统一小写去空白。
func NewChecker(adminEmails []string) *Checker {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if trimmed := strings.ToLower(strings.TrimSpace(email)); trimmed != "" {
			admins[trimmed] = struct{}{}
		}
	}
	return &Checker{admins: admins}
}

// Resolve 返回邮箱对应的权限级别，未知邮箱只保留身份不授权。
func (c *Checker) Resolve(email string) Level {
	identity := strings.ToLower(strings.TrimSpace(email))
	if identity == "" {
		return Level{}
	}
	_, ok := c.admins[identity]
	return Level{CanManage: ok, Identity: identity}
}
