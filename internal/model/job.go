package model

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus 表示职位发布的审核状态。
type JobStatus string

const (
	StatusDraft            JobStatus = "draft"
	StatusPendingPayment   JobStatus = "pending_payment"
	StatusPendingReview    JobStatus = "pending_review"
	StatusChangesRequested JobStatus = "changes_requested"
	StatusPublished        JobStatus = "published"
	StatusArchived         JobStatus = "archived"
)

// PaymentStatus 表示职位发布的付费状态。
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentWaived   PaymentStatus = "waived"
)

// PackageType 表示购买的发布套餐。
type PackageType string

const (
	PackageStandard  PackageType = "standard"
	PackageAmplified PackageType = "amplified"
)

// ApplicationMode 表示求职者的投递方式。
type ApplicationMode string

const (
	ApplyExternal ApplicationMode = "external_apply"
	ApplyEasy     ApplicationMode = "easy_apply"
	ApplyBoth     ApplicationMode = "both"
)

// PublishWindow 发布有效期，过期后由巡检归档。
const PublishWindow = 90 * 24 * time.Hour

// JobPost 表示一条职位发布记录
// - Slug: 由标题+公司+随机后缀生成，创建后不变，用于公开 URL
// - Status/PaymentStatus: 生命周期字段，见 lifecycle 包
// - SalaryMin/SalaryMax: 可空，均为空表示薪资不公开
// - EasyApplyFields: 站内投递需要收集的字段集合
// - PublishExpiresAt: 发布时设置为 PublishedAt + 90 天
type JobPost struct {
	ID            string        `gorm:"primaryKey" json:"id"`
	Slug          string        `gorm:"uniqueIndex" json:"slug"`
	Status        JobStatus     `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PackageType   PackageType   `json:"package_type"`

	Title          string            `json:"title"`
	CompanyName    string            `json:"company_name"`
	CompanyWebsite string            `json:"company_website"`
	BrandLogoURL   string            `json:"brand_logo_url"`
	BrandColors    datatypes.JSONMap `json:"brand_colors"`
	LocationText   string            `json:"location_text"`
	LocationMode   string            `json:"location_mode"`
	EmploymentType string            `json:"employment_type"`
	SeniorityLevel string            `json:"seniority_level"`

	SalaryMin      *int   `json:"salary_min"`
	SalaryMax      *int   `json:"salary_max"`
	SalaryCurrency string `json:"salary_currency"`
	SalaryPeriod   string `json:"salary_period"`

	Summary          string `json:"summary"`
	Responsibilities string `json:"responsibilities"`
	Requirements     string `json:"requirements"`
	NiceToHave       string `json:"nice_to_have"`

	ApplicationMode  ApplicationMode   `json:"application_mode"`
	ExternalApplyURL string            `json:"external_apply_url"`
	EasyApplyEmail   string            `json:"easy_apply_email"`
	EasyApplyFields  datatypes.JSONMap `json:"easy_apply_fields"`

	PublishedAt         *time.Time `json:"published_at"`
	PublishExpiresAt    *time.Time `json:"publish_expires_at"`
	ApplicationDeadline *time.Time `json:"application_deadline"`

	ReviewNote          string     `json:"review_note"`
	LastReviewedByEmail string     `json:"last_reviewed_by_email"`
	LastReviewedAt      *time.Time `json:"last_reviewed_at"`

	PostedByEmail  string `json:"posted_by_email"`
	PostedByUserID string `json:"posted_by_user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PubliclyVisible 判断职位当前是否对外可见。过期依赖当前时间，必须每次读取时重新计算。
func (j JobPost) PubliclyVisible(now time.Time) bool {
	if j.Status != StatusPublished {
		return false
	}
	if j.PaymentStatus != PaymentPaid && j.PaymentStatus != PaymentWaived {
		return false
	}
	if j.PublishExpiresAt != nil && !j.PublishExpiresAt.After(now) {
		return false
	}
	return true
}
