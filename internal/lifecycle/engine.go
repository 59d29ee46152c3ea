package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"meetup-board/internal/access"
	"meetup-board/internal/model"
	"meetup-board/internal/storage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrAdminRequired 表示操作需要管理员权限。
var ErrAdminRequired = errors.New("admin permission required")

// Store 抽象存储接口，便于测试替换。
type Store interface {
	CreateJobPost(ctx context.Context, job *model.JobPost) error
	GetJobPost(ctx context.Context, id string) (*model.JobPost, error)
	UpdateJobPost(ctx context.Context, id string, patch map[string]any) (*model.JobPost, error)
	ListJobPosts(ctx context.Context, query storage.JobPostQuery) ([]model.JobPost, error)
	CreateNotification(ctx context.Context, n model.AdminNotification, dedup bool) error
}

// Forwarder 将提交内容转发给外部表单路由端点，调用失败不影响主流程。
type Forwarder interface {
	Forward(ctx context.Context, kind string, payload map[string]any) error
}

// Config 控制生命周期引擎行为。
type Config struct {
	PaymentsEnabled bool `yaml:"payments_enabled" json:"payments_enabled"`
	ExpiryWarnDays  int  `yaml:"expiry_warn_days" json:"expiry_warn_days"`
}

// SweepResult 巡检统计。
type SweepResult struct {
	ExpiringSoon int `json:"expiring_soon"`
	Expired      int `json:"expired"`
}

// Engine 负责职位发布的状态流转及其附带副作用（通知、过期归档）。
// 通知写入失败仅记录日志，绝不阻断主状态变更。
type Engine struct {
	store     Store
	forwarder Forwarder
	cfg       Config
	logger    *log.Logger
	now       func() time.Time
	newSuffix func() string
}

// NewEngine 创建引擎，forwarder 可为空。
func NewEngine(store Store, forwarder Forwarder, cfg Config) *Engine {
	if cfg.ExpiryWarnDays <= 0 {
		cfg.ExpiryWarnDays = 14
	}
	return &Engine{
		store:     store,
		forwarder: forwarder,
		cfg:       cfg,
		logger:    log.New(os.Stdout, "[lifecycle] ", log.LstdFlags),
		now:       time.Now,
		newSuffix: func() string { return uuid.NewString()[:8] },
	}
}

// PaymentsEnabled 返回是否启用付费闸口。
func (e *Engine) PaymentsEnabled() bool { return e.cfg.PaymentsEnabled }

// SaveDraft 校验并写入草稿。existingID 非空时更新已有记录，付费状态保持不变。
func (e *Engine) SaveDraft(ctx context.Context, in DraftInput, existingID string) (*model.JobPost, error) {
	if err := validateDraft(in); err != nil {
		return nil, err
	}

	if existingID != "" {
		patch := draftPatch(in)
		patch["status"] = model.StatusDraft
		return e.store.UpdateJobPost(ctx, existingID, patch)
	}

	job := draftRecord(in)
	job.ID = uuid.NewString()
	job.Slug = makeSlug(in.Title, in.CompanyName, e.newSuffix())
	job.Status = model.StatusDraft
	job.PaymentStatus = model.PaymentUnpaid
	if err := e.store.CreateJobPost(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// MarkPendingPayment 进入待支付状态并记录所选套餐。
func (e *Engine) MarkPendingPayment(ctx context.Context, id string, pkg model.PackageType) (*model.JobPost, error) {
	return e.store.UpdateJobPost(ctx, id, map[string]any{
		"status":       model.StatusPendingPayment,
		"package_type": pkg,
	})
}

// MarkPaidAndSubmitForReview 支付确认后进入待审核，需要管理员权限。
func (e *Engine) MarkPaidAndSubmitForReview(ctx context.Context, id string, caller access.Level) (*model.JobPost, error) {
	if !caller.CanManage {
		return nil, ErrAdminRequired
	}
	job, err := e.store.UpdateJobPost(ctx, id, map[string]any{
		"status":         model.StatusPendingReview,
		"payment_status": model.PaymentPaid,
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, job, model.EventPaymentSucceeded, model.ScopeAdmin, "",
		fmt.Sprintf("Payment received for %q", job.Title), false)
	e.forwardSubmission(ctx, job)
	return job, nil
}

// SubmitForReviewWithoutPayment 付费关闭时直接进入待审核，付费状态记为豁免。
func (e *Engine) SubmitForReviewWithoutPayment(ctx context.Context, id string, pkg model.PackageType) (*model.JobPost, error) {
	job, err := e.store.UpdateJobPost(ctx, id, map[string]any{
		"status":         model.StatusPendingReview,
		"payment_status": model.PaymentWaived,
		"package_type":   pkg,
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, job, model.EventSubmitted, model.ScopeAdmin, "",
		fmt.Sprintf("Job %q submitted for review", job.Title), false)
	e.forwardSubmission(ctx, job)
	return job, nil
}

// Publish 上线职位：设置发布与过期时间，盖审核人戳。
// 付费状态只会从未结清升级为豁免，已是 paid/waived 的不会被改写。
func (e *Engine) Publish(ctx context.Context, id, reviewNote string, reviewer access.Level) (*model.JobPost, error) {
	current, err := e.store.GetJobPost(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	expires := now.Add(model.PublishWindow)
	patch := map[string]any{
		"status":             model.StatusPublished,
		"published_at":       now,
		"publish_expires_at": expires,
	}
	if upgrade, ok := waiveIfUnsettled(current.PaymentStatus); ok {
		patch["payment_status"] = upgrade
	}
	stampReview(patch, reviewNote, reviewer.Identity, now)

	job, err := e.store.UpdateJobPost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	e.notify(ctx, job, model.EventPublished, model.ScopePoster, job.PostedByEmail,
		fmt.Sprintf("Your listing %q is now live", job.Title), false)
	return job, nil
}

// RequestChanges 打回修改，备注至少 10 个字符并随通知发给发布者。
func (e *Engine) RequestChanges(ctx context.Context, id, reviewNote string, reviewer access.Level) (*model.JobPost, error) {
	if len(strings.TrimSpace(reviewNote)) < 10 {
		return nil, ValidationError{Msg: "add a note for the poster (at least 10 characters)"}
	}

	patch := map[string]any{"status": model.StatusChangesRequested}
	stampReview(patch, reviewNote, reviewer.Identity, e.now())

	job, err := e.store.UpdateJobPost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	e.notify(ctx, job, model.EventChangesRequested, model.ScopePoster, job.PostedByEmail, reviewNote, false)
	return job, nil
}

// Archive 下线职位。
func (e *Engine) Archive(ctx context.Context, id, reviewNote string, reviewer access.Level) (*model.JobPost, error) {
	patch := map[string]any{"status": model.StatusArchived}
	stampReview(patch, reviewNote, reviewer.Identity, e.now())

	job, err := e.store.UpdateJobPost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	e.notify(ctx, job, model.EventArchived, model.ScopePoster, job.PostedByEmail,
		fmt.Sprintf("Your listing %q was archived", job.Title), false)
	return job, nil
}

// Extend 重新上线并顺延 90 天。
// 新过期时间锚定在 max(now, 未过期的原过期时间)，已归档期间不计入有效期。
func (e *Engine) Extend(ctx context.Context, id string, reviewer access.Level) (*model.JobPost, error) {
	current, err := e.store.GetJobPost(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	anchor := now
	if current.PublishExpiresAt != nil && current.PublishExpiresAt.After(now) {
		anchor = *current.PublishExpiresAt
	}
	expires := anchor.Add(model.PublishWindow)

	patch := map[string]any{
		"status":             model.StatusPublished,
		"publish_expires_at": expires,
	}
	if current.PublishedAt == nil {
		patch["published_at"] = now
	}
	if upgrade, ok := waiveIfUnsettled(current.PaymentStatus); ok {
		patch["payment_status"] = upgrade
	}
	stampReview(patch, "", reviewer.Identity, now)

	job, err := e.store.UpdateJobPost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	e.notify(ctx, job, model.EventExtended, model.ScopePoster, job.PostedByEmail,
		fmt.Sprintf("Your listing %q was extended until %s", job.Title, expires.Format("2006-01-02")), false)
	return job, nil
}

// SyncExpiryAlerts 巡检所有在线职位：已过期的归档并通知，
// 临近过期的提前预警。单条失败不中断其余记录的处理。
func (e *Engine) SyncExpiryAlerts(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	jobs, err := e.store.ListJobPosts(ctx, storage.JobPostQuery{
		Statuses:        []model.JobStatus{model.StatusPublished},
		PaymentStatuses: []model.PaymentStatus{model.PaymentPaid, model.PaymentWaived},
	})
	if err != nil {
		return res, err
	}

	now := e.now()
	for _, job := range jobs {
		if job.PublishExpiresAt == nil {
			continue
		}
		daysLeft := daysUntil(now, *job.PublishExpiresAt)

		if daysLeft <= 0 {
			patch := map[string]any{"status": model.StatusArchived}
			stampReview(patch, "Listing reached the end of its 90-day publish window", "system", now)
			updated, err := e.store.UpdateJobPost(ctx, job.ID, patch)
			if err != nil {
				e.logger.Printf("sweep: archive %s: %v", job.ID, err)
				continue
			}
			msg := fmt.Sprintf("Listing %q expired and was archived", updated.Title)
			e.notify(ctx, updated, model.EventExpired, model.ScopeAdmin, "", msg, true)
			e.notify(ctx, updated, model.EventExpired, model.ScopePoster, updated.PostedByEmail, msg, true)
			res.Expired++
			continue
		}

		if daysLeft <= e.cfg.ExpiryWarnDays {
			msg := fmt.Sprintf("Listing %q expires in %d day(s)", job.Title, daysLeft)
			e.notify(ctx, &job, model.EventExpiringSoon, model.ScopeAdmin, "", msg, true)
			e.notify(ctx, &job, model.EventExpiringSoon, model.ScopePoster, job.PostedByEmail, msg, true)
			res.ExpiringSoon++
		}
	}

	return res, nil
}

// notify 写入通知记录，失败只记日志。
func (e *Engine) notify(ctx context.Context, job *model.JobPost, event model.NotificationEvent, scope model.RecipientScope, recipient, message string, dedup bool) {
	n := model.AdminNotification{
		JobID:          job.ID,
		EventType:      event,
		RecipientScope: scope,
		RecipientEmail: strings.ToLower(strings.TrimSpace(recipient)),
		Message:        message,
		Status:         model.NotificationUnread,
	}
	if err := e.store.CreateNotification(ctx, n, dedup); err != nil {
		e.logger.Printf("create %s notification for %s: %v", event, job.ID, err)
	}
}

// forwardSubmission 将提交摘要转发给外部表单路由端点，尽力而为。
func (e *Engine) forwardSubmission(ctx context.Context, job *model.JobPost) {
	if e.forwarder == nil {
		return
	}
	payload := map[string]any{
		"job_id":       job.ID,
		"slug":         job.Slug,
		"title":        job.Title,
		"company":      job.CompanyName,
		"posted_by":    job.PostedByEmail,
		"package_type": job.PackageType,
	}
	if err := e.forwarder.Forward(ctx, "job_submission", payload); err != nil {
		e.logger.Printf("forward submission %s: %v", job.ID, err)
	}
}

// waiveIfUnsettled 仅当付费状态尚未结清时返回豁免升级，绝不降级 paid/waived。
func waiveIfUnsettled(status model.PaymentStatus) (model.PaymentStatus, bool) {
	if status == model.PaymentPaid || status == model.PaymentWaived {
		return status, false
	}
	return model.PaymentWaived, true
}

func stampReview(patch map[string]any, note, reviewer string, at time.Time) {
	if note != "" {
		patch["review_note"] = note
	}
	patch["last_reviewed_by_email"] = strings.ToLower(strings.TrimSpace(reviewer))
	patch["last_reviewed_at"] = at
}

// daysUntil 向上取整到天数，过期返回 0 或负数。
func daysUntil(now, deadline time.Time) int {
	diff := deadline.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// draftRecord 将表单数据落成新记录。
func draftRecord(in DraftInput) *model.JobPost {
	return &model.JobPost{
		Title:            strings.TrimSpace(in.Title),
		CompanyName:      strings.TrimSpace(in.CompanyName),
		CompanyWebsite:   strings.TrimSpace(in.CompanyWebsite),
		BrandLogoURL:     strings.TrimSpace(in.BrandLogoURL),
		BrandColors:      colorMap(in.BrandColors),
		LocationText:     strings.TrimSpace(in.LocationText),
		LocationMode:     in.LocationMode,
		EmploymentType:   in.EmploymentType,
		SeniorityLevel:   in.SeniorityLevel,
		SalaryMin:        in.SalaryMin,
		SalaryMax:        in.SalaryMax,
		SalaryCurrency:   in.SalaryCurrency,
		SalaryPeriod:     in.SalaryPeriod,
		Summary:          strings.TrimSpace(in.Summary),
		Responsibilities: strings.TrimSpace(in.Responsibilities),
		Requirements:     strings.TrimSpace(in.Requirements),
		NiceToHave:       strings.TrimSpace(in.NiceToHave),
		ApplicationMode:  in.ApplicationMode,
		ExternalApplyURL: strings.TrimSpace(in.ExternalApplyURL),
		EasyApplyEmail:   strings.ToLower(strings.TrimSpace(resolveEasyApplyEmail(in))),
		EasyApplyFields:  fieldSet(in.EasyApplyFields),
		PostedByEmail:    strings.ToLower(strings.TrimSpace(in.PostedByEmail)),
		PostedByUserID:   in.PostedByUserID,
	}
}

// draftPatch 生成更新已有草稿的字段集合，不含生命周期与付费字段。
func draftPatch(in DraftInput) map[string]any {
	return map[string]any{
		"title":              strings.TrimSpace(in.Title),
		"company_name":       strings.TrimSpace(in.CompanyName),
		"company_website":    strings.TrimSpace(in.CompanyWebsite),
		"brand_logo_url":     strings.TrimSpace(in.BrandLogoURL),
		"brand_colors":       colorMap(in.BrandColors),
		"location_text":      strings.TrimSpace(in.LocationText),
		"location_mode":      in.LocationMode,
		"employment_type":    in.EmploymentType,
		"seniority_level":    in.SeniorityLevel,
		"salary_min":         in.SalaryMin,
		"salary_max":         in.SalaryMax,
		"salary_currency":    in.SalaryCurrency,
		"salary_period":      in.SalaryPeriod,
		"summary":            strings.TrimSpace(in.Summary),
		"responsibilities":   strings.TrimSpace(in.Responsibilities),
		"requirements":       strings.TrimSpace(in.Requirements),
		"nice_to_have":       strings.TrimSpace(in.NiceToHave),
		"application_mode":   in.ApplicationMode,
		"external_apply_url": strings.TrimSpace(in.ExternalApplyURL),
		"easy_apply_email":   strings.ToLower(strings.TrimSpace(resolveEasyApplyEmail(in))),
		"easy_apply_fields":  fieldSet(in.EasyApplyFields),
	}
}

func colorMap(colors map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range colors {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

func fieldSet(fields []string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for _, f := range fields {
		if trimmed := strings.ToLower(strings.TrimSpace(f)); trimmed != "" {
			out[trimmed] = true
		}
	}
	return out
}

// makeSlug 由标题+公司+随机后缀生成稳定 slug。
func makeSlug(title, company, suffix string) string {
	base := slugify(title + " " + company)
	if base == "" {
		base = "job"
	}
	return base + "-" + suffix
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
