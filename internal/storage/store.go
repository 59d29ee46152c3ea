package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"meetup-board/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store 封装 SQLite 数据库访问，负责职位、通知、活动、嵌入记录的增删查。
type Store struct {
	db *gorm.DB
}

// JobPostQuery 提供职位查询过滤条件。
type JobPostQuery struct {
	Statuses        []model.JobStatus
	PaymentStatuses []model.PaymentStatus
	PostedByEmail   string
	Limit           int
	Offset          int
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&model.JobPost{},
		&model.AdminNotification{},
		&model.AdminEvent{},
		&model.AdminSpeaker{},
		&model.AdminEventTalk{},
		&model.SocialEmbed{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateJobPost 新增职位记录。
func (s *Store) CreateJobPost(ctx context.Context, job *model.JobPost) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return wrapStoreErr("create job post", err)
	}
	return nil
}

// UpdateJobPost 按 ID 局部更新职位并返回最新记录。
func (s *Store) UpdateJobPost(ctx context.Context, id string, patch map[string]any) (*model.JobPost, error) {
	if len(patch) == 0 {
		return s.GetJobPost(ctx, id)
	}
	tx := s.db.WithContext(ctx).Model(&model.JobPost{}).Where("id = ?", id).Updates(patch)
	if tx.Error != nil {
		return nil, wrapStoreErr("update job post", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("update job post %s: %w", id, sql.ErrNoRows)
	}
	return s.GetJobPost(ctx, id)
}

// GetJobPost 根据 ID 获取职位。
func (s *Store) GetJobPost(ctx context.Context, id string) (*model.JobPost, error) {
	var job model.JobPost
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, sql.ErrNoRows
		}
		return nil, wrapStoreErr("get job post", err)
	}
	return &job, nil
}

// GetJobPostBySlug 根据公开 URL 的 slug 获取职位。
func (s *Store) GetJobPostBySlug(ctx context.Context, slug string) (*model.JobPost, error) {
	var job model.JobPost
	if err := s.db.WithContext(ctx).First(&job, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, sql.ErrNoRows
		}
		return nil, wrapStoreErr("get job post by slug", err)
	}
	return &job, nil
}

// ListJobPosts 返回满足过滤条件的职位，按创建时间倒序。
func (s *Store) ListJobPosts(ctx context.Context, query JobPostQuery) ([]model.JobPost, error) {
	var jobs []model.JobPost
	tx := s.db.WithContext(ctx).Model(&model.JobPost{}).Order("created_at DESC")
	if len(query.Statuses) > 0 {
		tx = tx.Where("status IN ?", query.Statuses)
	}
	if len(query.PaymentStatuses) > 0 {
		tx = tx.Where("payment_status IN ?", query.PaymentStatuses)
	}
	if query.PostedByEmail != "" {
		tx = tx.Where("posted_by_email = ?", strings.ToLower(query.PostedByEmail))
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if err := tx.Find(&jobs).Error; err != nil {
		return nil, wrapStoreErr("list job posts", err)
	}
	return jobs, nil
}

// ListPublished 返回当前对外可见的职位。
// 状态与付费条件直接进查询，过期条件在读取时按当前时间补判，
// 保证尚未被巡检归档的过期职位也不会泄漏到公开列表。
func (s *Store) ListPublished(ctx context.Context, now time.Time, limit, offset int) ([]model.JobPost, error) {
	var jobs []model.JobPost
	tx := s.db.WithContext(ctx).Model(&model.JobPost{}).
		Where("status = ?", model.StatusPublished).
		Where("payment_status IN ?", []model.PaymentStatus{model.PaymentPaid, model.PaymentWaived}).
		Order("published_at DESC")
	if err := tx.Find(&jobs).Error; err != nil {
		return nil, wrapStoreErr("list published job posts", err)
	}

	visible := make([]model.JobPost, 0, len(jobs))
	for _, job := range jobs {
		if job.PubliclyVisible(now) {
			visible = append(visible, job)
		}
	}
	if offset > 0 {
		if offset >= len(visible) {
			return []model.JobPost{}, nil
		}
		visible = visible[offset:]
	}
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

// CountPublished 返回当前对外可见的职位数量。
func (s *Store) CountPublished(ctx context.Context, now time.Time) (int64, error) {
	jobs, err := s.ListPublished(ctx, now, 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(jobs)), nil
}

// CreateNotification 写入通知记录。
// dedup 为 true 时按 (event_type, job_id, recipient_scope, recipient_email)
// 去重，巡检重复运行不会再次提醒。
func (s *Store) CreateNotification(ctx context.Context, n model.AdminNotification, dedup bool) error {
	if n.Status == "" {
		n.Status = model.NotificationUnread
	}
	if dedup {
		var count int64
		err := s.db.WithContext(ctx).Model(&model.AdminNotification{}).
			Where("event_type = ? AND job_id = ? AND recipient_scope = ? AND recipient_email = ?",
				n.EventType, n.JobID, n.RecipientScope, n.RecipientEmail).
			Count(&count).Error
		if err != nil {
			return wrapStoreErr("check notification dedup", err)
		}
		if count > 0 {
			return nil
		}
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return wrapStoreErr("create notification", err)
	}
	return nil
}

// ListNotifications 返回指定范围的通知，scope 为空时返回全部，按时间倒序。
func (s *Store) ListNotifications(ctx context.Context, scope model.RecipientScope, limit int) ([]model.AdminNotification, error) {
	var items []model.AdminNotification
	tx := s.db.WithContext(ctx).Model(&model.AdminNotification{}).Order("created_at DESC")
	if scope != "" {
		tx = tx.Where("recipient_scope IN ?", []model.RecipientScope{scope, model.ScopeAll})
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&items).Error; err != nil {
		return nil, wrapStoreErr("list notifications", err)
	}
	return items, nil
}

// ListNotificationsSince 返回某时间点之后产生的指定范围通知，按时间升序。
// 供定时巡检的邮件摘要使用，避免重复发送历史通知。
func (s *Store) ListNotificationsSince(ctx context.Context, scope model.RecipientScope, since time.Time) ([]model.AdminNotification, error) {
	var items []model.AdminNotification
	tx := s.db.WithContext(ctx).Model(&model.AdminNotification{}).
		Where("created_at > ?", since).
		Order("created_at ASC")
	if scope != "" {
		tx = tx.Where("recipient_scope IN ?", []model.RecipientScope{scope, model.ScopeAll})
	}
	if err := tx.Find(&items).Error; err != nil {
		return nil, wrapStoreErr("list notifications since", err)
	}
	return items, nil
}

// MarkNotificationRead 将通知置为已读。
func (s *Store) MarkNotificationRead(ctx context.Context, id uint) error {
	tx := s.db.WithContext(ctx).Model(&model.AdminNotification{}).
		Where("id = ?", id).
		Update("status", model.NotificationRead)
	if tx.Error != nil {
		return wrapStoreErr("mark notification read", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("mark notification read %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// SaveEvent 新增或更新活动记录。
func (s *Store) SaveEvent(ctx context.Context, event *model.AdminEvent) error {
	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		return wrapStoreErr("save event", err)
	}
	return nil
}

// ListEvents 返回活动列表，publishedOnly 为 true 时只含已发布活动，按开始时间倒序。
func (s *Store) ListEvents(ctx context.Context, publishedOnly bool) ([]model.AdminEvent, error) {
	var events []model.AdminEvent
	tx := s.db.WithContext(ctx).Model(&model.AdminEvent{}).Order("starts_at DESC")
	if publishedOnly {
		tx = tx.Where("published = ?", true)
	}
	if err := tx.Find(&events).Error; err != nil {
		return nil, wrapStoreErr("list events", err)
	}
	return events, nil
}

// SaveSpeaker 新增或更新讲师档案。
func (s *Store) SaveSpeaker(ctx context.Context, speaker *model.AdminSpeaker) error {
	if err := s.db.WithContext(ctx).Save(speaker).Error; err != nil {
		return wrapStoreErr("save speaker", err)
	}
	return nil
}

// ListSpeakers 返回全部讲师。
func (s *Store) ListSpeakers(ctx context.Context) ([]model.AdminSpeaker, error) {
	var speakers []model.AdminSpeaker
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&speakers).Error; err != nil {
		return nil, wrapStoreErr("list speakers", err)
	}
	return speakers, nil
}

// SaveTalk 新增或更新活动演讲。
func (s *Store) SaveTalk(ctx context.Context, talk *model.AdminEventTalk) error {
	if err := s.db.WithContext(ctx).Save(talk).Error; err != nil {
		return wrapStoreErr("save talk", err)
	}
	return nil
}

// ListTalks 返回某期活动的演讲列表，按排序字段升序。
func (s *Store) ListTalks(ctx context.Context, eventID uint) ([]model.AdminEventTalk, error) {
	var talks []model.AdminEventTalk
	if err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position ASC").
		Find(&talks).Error; err != nil {
		return nil, wrapStoreErr("list talks", err)
	}
	return talks, nil
}

// ReplaceSocialEmbeds 用给定的 URN 列表整体替换嵌入配置，保留传入顺序。
func (s *Store) ReplaceSocialEmbeds(ctx context.Context, urns []string, addedBy string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.SocialEmbed{}).Error; err != nil {
			return wrapStoreErr("clear social embeds", err)
		}
		for i, urn := range urns {
			embed := model.SocialEmbed{URN: urn, AddedByEmail: addedBy, Position: i}
			if err := tx.Create(&embed).Error; err != nil {
				return wrapStoreErr("create social embed", err)
			}
		}
		return nil
	})
}

// ListSocialEmbeds 返回嵌入配置，按展示顺序。
func (s *Store) ListSocialEmbeds(ctx context.Context) ([]model.SocialEmbed, error) {
	var embeds []model.SocialEmbed
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&embeds).Error; err != nil {
		return nil, wrapStoreErr("list social embeds", err)
	}
	return embeds, nil
}

// wrapStoreErr 统一包装存储层错误，可识别的数据库错误翻译成运维可操作的提示。
func wrapStoreErr(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%s: %v (schema missing, restart the server to run migrations)", op, err)
	case strings.Contains(msg, "recursion"):
		return fmt.Errorf("%s: %v (check the table triggers for a self-referencing rule)", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
