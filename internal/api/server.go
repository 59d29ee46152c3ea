package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"meetup-board/internal/access"
	"meetup-board/internal/branding"
	"meetup-board/internal/lifecycle"
	"meetup-board/internal/markdown"
	"meetup-board/internal/model"
	"meetup-board/internal/storage"

	"gorm.io/datatypes"
)

// Store 抽象存储接口。
type Store interface {
	ListPublished(ctx context.Context, now time.Time, limit, offset int) ([]model.JobPost, error)
	CountPublished(ctx context.Context, now time.Time) (int64, error)
	GetJobPostBySlug(ctx context.Context, slug string) (*model.JobPost, error)
	ListJobPosts(ctx context.Context, query storage.JobPostQuery) ([]model.JobPost, error)
	ListNotifications(ctx context.Context, scope model.RecipientScope, limit int) ([]model.AdminNotification, error)
	MarkNotificationRead(ctx context.Context, id uint) error
	SaveEvent(ctx context.Context, event *model.AdminEvent) error
	ListEvents(ctx context.Context, publishedOnly bool) ([]model.AdminEvent, error)
	SaveSpeaker(ctx context.Context, speaker *model.AdminSpeaker) error
	ListSpeakers(ctx context.Context) ([]model.AdminSpeaker, error)
	SaveTalk(ctx context.Context, talk *model.AdminEventTalk) error
	ListTalks(ctx context.Context, eventID uint) ([]model.AdminEventTalk, error)
}

// Lifecycle 抽象职位状态流转接口。
type Lifecycle interface {
	SaveDraft(ctx context.Context, in lifecycle.DraftInput, existingID string) (*model.JobPost, error)
	MarkPendingPayment(ctx context.Context, id string, pkg model.PackageType) (*model.JobPost, error)
	MarkPaidAndSubmitForReview(ctx context.Context, id string, caller access.Level) (*model.JobPost, error)
	SubmitForReviewWithoutPayment(ctx context.Context, id string, pkg model.PackageType) (*model.JobPost, error)
	Publish(ctx context.Context, id, reviewNote string, reviewer access.Level) (*model.JobPost, error)
	RequestChanges(ctx context.Context, id, reviewNote string, reviewer access.Level) (*model.JobPost, error)
	Archive(ctx context.Context, id, reviewNote string, reviewer access.Level) (*model.JobPost, error)
	Extend(ctx context.Context, id string, reviewer access.Level) (*model.JobPost, error)
	PaymentsEnabled() bool
}

// Sweeper 抽象巡检触发接口，供后台手动执行。
type Sweeper interface {
	RunOnce(ctx context.Context) (lifecycle.SweepResult, error)
}

// EmbedService 管理首页 LinkedIn 嵌入配置。
type EmbedService interface {
	Replace(ctx context.Context, inputs []string, addedBy string) ([]string, error)
	List(ctx context.Context) ([]model.SocialEmbed, error)
}

// BrandLookup 抓取公司官网的品牌元数据，用于预填草稿表单。
type BrandLookup interface {
	Lookup(ctx context.Context, website string) (branding.Profile, error)
}

// AccessChecker 由来访邮箱解析权限级别。
type AccessChecker interface {
	Resolve(email string) access.Level
}

// response 统一响应外壳。
type response struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JobDraftRequest 表示草稿表单提交的请求体。
type JobDraftRequest struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	CompanyName    string            `json:"company_name"`
	CompanyWebsite string            `json:"company_website"`
	BrandLogoURL   string            `json:"brand_logo_url"`
	BrandColors    map[string]string `json:"brand_colors"`
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

	ApplicationMode  model.ApplicationMode `json:"application_mode"`
	ExternalApplyURL string                `json:"external_apply_url"`
	EasyApplyEmail   string                `json:"easy_apply_email"`
	EasyApplyFields  []string              `json:"easy_apply_fields"`

	PostedByEmail  string `json:"posted_by_email"`
	PostedByUserID string `json:"posted_by_user_id"`
}

// SubmitRequest 表示提交审核请求体。
type SubmitRequest struct {
	PackageType model.PackageType `json:"package_type"`
}

// ReviewRequest 表示审核操作请求体。
type ReviewRequest struct {
	Note string `json:"note"`
}

// EmbedRequest 表示嵌入配置请求体。
type EmbedRequest struct {
	Links []string `json:"links"`
}

type handlers struct {
	store  Store
	engine Lifecycle
	sweep  Sweeper
	embeds EmbedService
	brand  BrandLookup
	acl    AccessChecker
	now    func() time.Time
}

// NewHandler 构造 HTTP 多路复用器，brand 可为空。
func NewHandler(store Store, engine Lifecycle, sweep Sweeper, embeds EmbedService, brand BrandLookup, acl AccessChecker) http.Handler {
	h := &handlers{store: store, engine: engine, sweep: sweep, embeds: embeds, brand: brand, acl: acl, now: time.Now}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/jobs", h.handleJobs)
	mux.HandleFunc("/api/jobs/", h.handleJobSubpath)
	mux.HandleFunc("/api/events", h.handlePublicEvents)
	mux.HandleFunc("/api/events/", h.handleEventDetail)
	mux.HandleFunc("/api/embeds", h.handlePublicEmbeds)
	mux.HandleFunc("/api/branding", h.handleBrandLookup)

	mux.HandleFunc("/api/admin/jobs", h.handleAdminJobs)
	mux.HandleFunc("/api/admin/jobs/", h.handleAdminJobAction)
	mux.HandleFunc("/api/admin/sweep", h.handleAdminSweep)
	mux.HandleFunc("/api/admin/notifications", h.handleAdminNotifications)
	mux.HandleFunc("/api/admin/notifications/", h.handleAdminNotificationRead)
	mux.HandleFunc("/api/admin/events", h.handleAdminSaveEvent)
	mux.HandleFunc("/api/admin/speakers", h.handleAdminSaveSpeaker)
	mux.HandleFunc("/api/admin/talks", h.handleAdminSaveTalk)
	mux.HandleFunc("/api/admin/embeds", h.handleAdminEmbeds)

	return mux
}

// handleJobs 公开职位列表（GET）与草稿保存（POST）。
func (h *handlers) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPublicJobs(w, r)
	case http.MethodPost:
		h.saveDraft(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handlers) listPublicJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			if v > 100 {
				v = 100
			}
			limit = v
		}
	}
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	offset := (page - 1) * limit
	now := h.now()

	jobs, err := h.store.ListPublished(r.Context(), now, limit+1, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	total, err := h.store.CountPublished(r.Context(), now)
	if err != nil {
		writeErr(w, err)
		return
	}

	hasMore := false
	if len(jobs) > limit {
		hasMore = true
		jobs = jobs[:limit]
	}

	items := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, summarizeJob(job))
	}

	w.Header().Set("X-Page", strconv.Itoa(page))
	w.Header().Set("X-Limit", strconv.Itoa(limit))
	w.Header().Set("X-Has-More", strconv.FormatBool(hasMore))
	w.Header().Set("X-Total", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, response{OK: true, Data: items})
}

func (h *handlers) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req JobDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "invalid payload"})
		return
	}
	job, err := h.engine.SaveDraft(r.Context(), draftInput(req), req.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, response{OK: true, Data: job})
}

// handleJobSubpath 处理 /api/jobs/{slug} 与 /api/jobs/{id}/submit。
func (h *handlers) handleJobSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.SplitN(rest, "/", 2)

	if len(parts) == 2 && parts[1] == "submit" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.submitJob(w, r, parts[0])
		return
	}
	if len(parts) == 1 && parts[0] != "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.getPublicJob(w, r, parts[0])
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *handlers) getPublicJob(w http.ResponseWriter, r *http.Request, slug string) {
	job, err := h.store.GetJobPostBySlug(r.Context(), slug)
	if err != nil {
		writeErr(w, err)
		return
	}
	// 过期条件依赖当前时间，读取时重新判定，巡检滞后也不会泄漏下线职位。
	if !job.PubliclyVisible(h.now()) {
		writeJSON(w, http.StatusNotFound, response{Message: "not found"})
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: detailJob(*job)})
}

func (h *handlers) submitJob(w http.ResponseWriter, r *http.Request, id string) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "invalid payload"})
		return
	}
	pkg := req.PackageType
	if pkg == "" {
		pkg = model.PackageStandard
	}

	var job *model.JobPost
	var err error
	if h.engine.PaymentsEnabled() {
		job, err = h.engine.MarkPendingPayment(r.Context(), id, pkg)
	} else {
		job, err = h.engine.SubmitForReviewWithoutPayment(r.Context(), id, pkg)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: job})
}

func (h *handlers) handlePublicEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	events, err := h.store.ListEvents(r.Context(), true)
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]eventSummary, 0, len(events))
	for _, event := range events {
		items = append(items, eventSummary{AdminEvent: event, SeatAvailability: event.SeatAvailability()})
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: items})
}

// handleEventDetail 返回单期活动及其演讲列表，讲师信息内联。
func (h *handlers) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		writeJSON(w, http.StatusNotFound, response{Message: "not found"})
		return
	}

	events, err := h.store.ListEvents(r.Context(), true)
	if err != nil {
		writeErr(w, err)
		return
	}
	var event *model.AdminEvent
	for i := range events {
		if events[i].ID == uint(id) {
			event = &events[i]
			break
		}
	}
	if event == nil {
		writeJSON(w, http.StatusNotFound, response{Message: "not found"})
		return
	}

	talks, err := h.store.ListTalks(r.Context(), event.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	speakers, err := h.store.ListSpeakers(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	byID := make(map[uint]model.AdminSpeaker, len(speakers))
	for _, speaker := range speakers {
		byID[speaker.ID] = speaker
	}

	lineup := make([]talkView, 0, len(talks))
	for _, talk := range talks {
		view := talkView{AdminEventTalk: talk}
		if speaker, ok := byID[talk.SpeakerID]; ok {
			view.Speaker = &speaker
		}
		lineup = append(lineup, view)
	}

	writeJSON(w, http.StatusOK, response{OK: true, Data: eventDetail{
		AdminEvent:       *event,
		SeatAvailability: event.SeatAvailability(),
		Talks:            lineup,
	}})
}

func (h *handlers) handlePublicEmbeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := h.embeds.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: items})
}

// handleBrandLookup 按公司官网抓取品牌元数据，供草稿表单预填。
func (h *handlers) handleBrandLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.brand == nil {
		writeJSON(w, http.StatusServiceUnavailable, response{Message: "branding lookup disabled"})
		return
	}
	website := r.URL.Query().Get("website")
	if strings.TrimSpace(website) == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "website query parameter is required"})
		return
	}
	profile, err := h.brand.Lookup(r.Context(), website)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, response{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: profile})
}

// handleAdminJobs 返回后台职位列表，支持状态过滤。
func (h *handlers) handleAdminJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := storage.JobPostQuery{}
	if status := r.URL.Query().Get("status"); status != "" {
		query.Statuses = []model.JobStatus{model.JobStatus(status)}
	}
	if poster := r.URL.Query().Get("poster"); poster != "" {
		query.PostedByEmail = poster
	}
	jobs, err := h.store.ListJobPosts(r.Context(), query)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: jobs})
}

// handleAdminJobAction 处理 /api/admin/jobs/{id}/{action}。
func (h *handlers) handleAdminJobAction(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/jobs/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, action := parts[0], parts[1]

	var req ReviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var job *model.JobPost
	var err error
	switch action {
	case "publish":
		job, err = h.engine.Publish(r.Context(), id, req.Note, caller)
	case "request-changes":
		job, err = h.engine.RequestChanges(r.Context(), id, req.Note, caller)
	case "archive":
		job, err = h.engine.Archive(r.Context(), id, req.Note, caller)
	case "extend":
		job, err = h.engine.Extend(r.Context(), id, caller)
	case "mark-paid":
		job, err = h.engine.MarkPaidAndSubmitForReview(r.Context(), id, caller)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: job})
}

func (h *handlers) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := h.sweep.RunOnce(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: res})
}

func (h *handlers) handleAdminNotifications(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	scope := model.RecipientScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = model.ScopeAdmin
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	items, err := h.store.ListNotifications(r.Context(), scope, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: items})
}

// handleAdminNotificationRead 处理 /api/admin/notifications/{id}/read。
func (h *handlers) handleAdminNotificationRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/notifications/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] != "read" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "invalid notification id"})
		return
	}
	if err := h.store.MarkNotificationRead(r.Context(), uint(id)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true})
}

func (h *handlers) handleAdminSaveEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		events, err := h.store.ListEvents(r.Context(), false)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{OK: true, Data: events})
	case http.MethodPost:
		var event model.AdminEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Message: "invalid payload"})
			return
		}
		if strings.TrimSpace(event.Title) == "" {
			writeJSON(w, http.StatusBadRequest, response{Message: "event title is required"})
			return
		}
		if event.Slug == "" {
			event.Slug = slugifyTitle(event.Title)
		}
		if err := h.store.SaveEvent(r.Context(), &event); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{OK: true, Data: event})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handlers) handleAdminSaveSpeaker(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		speakers, err := h.store.ListSpeakers(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{OK: true, Data: speakers})
	case http.MethodPost:
		var speaker model.AdminSpeaker
		if err := json.NewDecoder(r.Body).Decode(&speaker); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Message: "invalid payload"})
			return
		}
		if strings.TrimSpace(speaker.Name) == "" {
			writeJSON(w, http.StatusBadRequest, response{Message: "speaker name is required"})
			return
		}
		if err := h.store.SaveSpeaker(r.Context(), &speaker); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{OK: true, Data: speaker})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handlers) handleAdminSaveTalk(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var talk model.AdminEventTalk
	if err := json.NewDecoder(r.Body).Decode(&talk); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "invalid payload"})
		return
	}
	if talk.EventID == 0 {
		writeJSON(w, http.StatusBadRequest, response{Message: "talk must belong to an event"})
		return
	}
	if err := h.store.SaveTalk(r.Context(), &talk); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: talk})
}

func (h *handlers) handleAdminEmbeds(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "invalid payload"})
		return
	}
	urns, err := h.embeds.Replace(r.Context(), req.Links, caller.Identity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: urns})
}

// requireAdmin 解析 X-Admin-Email 头并要求管理权限。
func (h *handlers) requireAdmin(w http.ResponseWriter, r *http.Request) (access.Level, bool) {
	caller := h.acl.Resolve(r.Header.Get("X-Admin-Email"))
	if !caller.CanManage {
		writeJSON(w, http.StatusForbidden, response{Message: "admin permission required"})
		return caller, false
	}
	return caller, true
}

// --- public views ---

// jobSummary 公开列表视图，不含审核与联系人字段。
type jobSummary struct {
	Slug           string            `json:"slug"`
	Title          string            `json:"title"`
	CompanyName    string            `json:"company_name"`
	BrandLogoURL   string            `json:"brand_logo_url"`
	BrandColors    datatypes.JSONMap `json:"brand_colors"`
	LocationText   string            `json:"location_text"`
	LocationMode   string            `json:"location_mode"`
	EmploymentType string            `json:"employment_type"`
	SeniorityLevel string            `json:"seniority_level"`
	SalaryLabel    string            `json:"salary_label"`
	Summary        string            `json:"summary"`
	PublishedAt    *time.Time        `json:"published_at"`
}

// jobDetail 公开详情视图，正文字段渲染为 HTML。
type jobDetail struct {
	jobSummary
	SummaryHTML          string                `json:"summary_html"`
	ResponsibilitiesHTML string                `json:"responsibilities_html"`
	RequirementsHTML     string                `json:"requirements_html"`
	NiceToHaveHTML       string                `json:"nice_to_have_html"`
	ApplicationMode      model.ApplicationMode `json:"application_mode"`
	ExternalApplyURL     string                `json:"external_apply_url"`
	EasyApplyFields      []string              `json:"easy_apply_fields"`
	CompanyWebsite       string                `json:"company_website"`
	PublishExpiresAt     *time.Time            `json:"publish_expires_at"`
}

type eventSummary struct {
	model.AdminEvent
	SeatAvailability string `json:"seat_availability"`
}

type talkView struct {
	model.AdminEventTalk
	Speaker *model.AdminSpeaker `json:"speaker,omitempty"`
}

type eventDetail struct {
	model.AdminEvent
	SeatAvailability string     `json:"seat_availability"`
	Talks            []talkView `json:"talks"`
}

func summarizeJob(job model.JobPost) jobSummary {
	return jobSummary{
		Slug:           job.Slug,
		Title:          job.Title,
		CompanyName:    job.CompanyName,
		BrandLogoURL:   job.BrandLogoURL,
		BrandColors:    job.BrandColors,
		LocationText:   job.LocationText,
		LocationMode:   job.LocationMode,
		EmploymentType: job.EmploymentType,
		SeniorityLevel: job.SeniorityLevel,
		SalaryLabel:    lifecycle.FormatSalaryRange(job.SalaryMin, job.SalaryMax, job.SalaryCurrency, job.SalaryPeriod),
		Summary:        markdown.Strip(job.Summary),
		PublishedAt:    job.PublishedAt,
	}
}

func detailJob(job model.JobPost) jobDetail {
	fields := make([]string, 0, len(job.EasyApplyFields))
	for name := range job.EasyApplyFields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return jobDetail{
		jobSummary:           summarizeJob(job),
		SummaryHTML:          markdown.RenderHTML(job.Summary),
		ResponsibilitiesHTML: markdown.RenderHTML(job.Responsibilities),
		RequirementsHTML:     markdown.RenderHTML(job.Requirements),
		NiceToHaveHTML:       markdown.RenderHTML(job.NiceToHave),
		ApplicationMode:      job.ApplicationMode,
		ExternalApplyURL:     job.ExternalApplyURL,
		EasyApplyFields:      fields,
		CompanyWebsite:       job.CompanyWebsite,
		PublishExpiresAt:     job.PublishExpiresAt,
	}
}

func draftInput(req JobDraftRequest) lifecycle.DraftInput {
	return lifecycle.DraftInput{
		Title:            req.Title,
		CompanyName:      req.CompanyName,
		CompanyWebsite:   req.CompanyWebsite,
		BrandLogoURL:     req.BrandLogoURL,
		BrandColors:      req.BrandColors,
		LocationText:     req.LocationText,
		LocationMode:     req.LocationMode,
		EmploymentType:   req.EmploymentType,
		SeniorityLevel:   req.SeniorityLevel,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		SalaryCurrency:   req.SalaryCurrency,
		SalaryPeriod:     req.SalaryPeriod,
		Summary:          req.Summary,
		Responsibilities: req.Responsibilities,
		Requirements:     req.Requirements,
		NiceToHave:       req.NiceToHave,
		ApplicationMode:  req.ApplicationMode,
		ExternalApplyURL: req.ExternalApplyURL,
		EasyApplyEmail:   req.EasyApplyEmail,
		EasyApplyFields:  req.EasyApplyFields,
		PostedByEmail:    req.PostedByEmail,
		PostedByUserID:   req.PostedByUserID,
	}
}

func slugifyTitle(s string) string {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 按错误类型映射状态码：校验 400、权限 403、缺记录 404、其余 500。
func writeErr(w http.ResponseWriter, err error) {
	var ve lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, response{Message: ve.Msg})
	case errors.Is(err, lifecycle.ErrAdminRequired):
		writeJSON(w, http.StatusForbidden, response{Message: err.Error()})
	case errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, response{Message: "not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, response{Message: err.Error()})
	}
}
