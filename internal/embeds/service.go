package embeds

import (
	"context"
	"fmt"
	"strings"

	"meetup-board/internal/model"
	"meetup-board/internal/social"
)

// Store 定义持久化接口。
type Store interface {
	ReplaceSocialEmbeds(ctx context.Context, urns []string, addedBy string) error
	ListSocialEmbeds(ctx context.Context) ([]model.SocialEmbed, error)
}

// Config 控制嵌入墙的容量。
type Config struct {
	MaxEmbeds int `yaml:"max_embeds" json:"max_embeds"`
}

// Service 负责校验并保存首页的 LinkedIn 嵌入配置。
type Service struct {
	store Store
	max   int
}

// NewService 创建嵌入管理服务，容量默认 12。
func NewService(store Store, cfg Config) *Service {
	max := cfg.MaxEmbeds
	if max <= 0 {
		max = 12
	}
	return &Service{store: store, max: max}
}

// Replace 将粘贴的链接列表规范化为 URN 并整体替换现有配置。
// 无法识别任何链接时报错，避免把嵌入墙清空成意外状态。
func (s *Service) Replace(ctx context.Context, inputs []string, addedBy string) ([]string, error) {
	cleaned := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if trimmed := strings.TrimSpace(in); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	urns := social.ExtractPostURNs(cleaned, s.max)
	if len(cleaned) > 0 && len(urns) == 0 {
		return nil, fmt.Errorf("no recognizable LinkedIn post links")
	}

	if err := s.store.ReplaceSocialEmbeds(ctx, urns, strings.ToLower(strings.TrimSpace(addedBy))); err != nil {
		return nil, err
	}
	return urns, nil
}

// List 返回当前配置的嵌入列表。
func (s *Service) List(ctx context.Context) ([]model.SocialEmbed, error) {
	return s.store.ListSocialEmbeds(ctx)
}
