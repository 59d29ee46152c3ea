package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AdminEvent 表示一期线下/线上活动。
type AdminEvent struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Slug        string            `gorm:"uniqueIndex" json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Venue       string            `json:"venue"`
	StartsAt    time.Time         `json:"starts_at"`
	SeatLimit   int               `json:"seat_limit"`
	SeatsTaken  int               `json:"seats_taken"`
	Links       datatypes.JSONMap `json:"links"`
	Published   bool              `json:"published"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SeatAvailability 返回给前端展示的席位文案。
func (e AdminEvent) SeatAvailability() string {
	if e.SeatLimit <= 0 {
		return "Open seating"
	}
	left := e.SeatLimit - e.SeatsTaken
	if left <= 0 {
		return "Sold out"
	}
	return fmt.Sprintf("%d seats left", left)
}

// AdminSpeaker 表示讲师档案。
type AdminSpeaker struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Name      string            `json:"name"`
	Headline  string            `json:"headline"`
	PhotoURL  string            `json:"photo_url"`
	Links     datatypes.JSONMap `json:"links"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// AdminEventTalk 表示某期活动中的一个演讲。
type AdminEventTalk struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"index" json:"event_id"`
	SpeakerID uint      `gorm:"index" json:"speaker_id"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	SlidesURL string    `json:"slides_url"`
	VideoURL  string    `json:"video_url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SocialEmbed 表示首页展示的 LinkedIn 帖子嵌入，URN 为规范化后的标识。
type SocialEmbed struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	URN          string    `gorm:"uniqueIndex" json:"urn"`
	AddedByEmail string    `json:"added_by_email"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}
