package model

import "time"

// NotificationEvent 通知事件类型，固定枚举。
type NotificationEvent string

const (
	EventSubmitted        NotificationEvent = "submitted"
	EventPaymentSucceeded NotificationEvent = "payment_succeeded"
	EventPublished        NotificationEvent = "published"
	EventChangesRequested NotificationEvent = "changes_requested"
	EventArchived         NotificationEvent = "archived"
	EventExpiringSoon     NotificationEvent = "expiring_soon"
	EventExpired          NotificationEvent = "expired"
	EventExtended         NotificationEvent = "extended"
)

// RecipientScope 通知的接收范围。
type RecipientScope string

const (
	ScopeAdmin  RecipientScope = "admin"
	ScopePoster RecipientScope = "poster"
	ScopeAll    RecipientScope = "all"
)

// NotificationStatus 已读状态。
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// AdminNotification 表示生命周期流转产生的事件记录。
// 去重键为 (EventType, JobID, RecipientScope, RecipientEmail)，
// 避免巡检每次运行都重复提醒。
type AdminNotification struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	JobID          string             `gorm:"index" json:"job_id"`
	EventType      NotificationEvent  `json:"event_type"`
	RecipientScope RecipientScope     `json:"recipient_scope"`
	RecipientEmail string             `json:"recipient_email"`
	Message        string             `json:"message"`
	Status         NotificationStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}
