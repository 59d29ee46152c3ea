package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"meetup-board/internal/lifecycle"
	"meetup-board/internal/model"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Config 用于调度配置，Spec 接受标准 cron 表达式或 @every/@daily 描述符。
type Config struct {
	Spec       string `yaml:"spec" json:"spec"`
	Timeout    string `yaml:"timeout" json:"timeout"`
	RunOnStart bool   `yaml:"run_on_start" json:"run_on_start"`
}

// Sweeper 抽象生命周期巡检接口，便于测试替换。
type Sweeper interface {
	SyncExpiryAlerts(ctx context.Context) (lifecycle.SweepResult, error)
}

// Store 提供邮件摘要所需的通知查询。
type Store interface {
	ListNotificationsSince(ctx context.Context, scope model.RecipientScope, since time.Time) ([]model.AdminNotification, error)
}

// Notifier 用于发送管理员通知摘要。
type Notifier interface {
	Notify(ctx context.Context, items []model.AdminNotification) error
}

// Scheduler 负责周期性执行过期巡检，并把新产生的管理员通知汇总外发。
type Scheduler struct {
	sweeper    Sweeper
	store      Store
	notif      Notifier
	spec       string
	timeout    time.Duration
	runOnStart bool
	cron       *cron.Cron
	running    atomic.Bool
	lastDigest time.Time
	logger     *log.Logger
	now        func() time.Time
}

// NewScheduler 创建 Scheduler，解析配置的表达式与超时。
func NewScheduler(sweeper Sweeper, store Store, notif Notifier, cfg Config) *Scheduler {
	spec := cfg.Spec
	if spec == "" {
		spec = "@daily"
	}
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	s := &Scheduler{
		sweeper:    sweeper,
		store:      store,
		notif:      notif,
		spec:       spec,
		timeout:    timeout,
		runOnStart: cfg.RunOnStart,
		cron:       cron.New(),
		logger:     log.New(os.Stdout, "[scheduler] ", log.LstdFlags),
		now:        time.Now,
	}
	// 摘要只覆盖进程启动后的新通知，历史通知留给后台页面。
	s.lastDigest = s.now()
	return s
}

// Start 启动调度循环，直到上下文取消。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.sweeper == nil {
		return fmt.Errorf("scheduler missing sweeper")
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.runOnce(ctx); err != nil {
			s.logger.Printf("scheduled sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", s.spec, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	s.cron.Start()

	if s.runOnStart {
		g.Go(func() error {
			if _, err := s.runOnce(ctx); err != nil {
				s.logger.Printf("startup sweep failed: %v", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		return ctx.Err()
	})

	return g.Wait()
}

// RunOnce 对外暴露单次巡检接口，供后台手动触发。
func (s *Scheduler) RunOnce(ctx context.Context) (lifecycle.SweepResult, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) (lifecycle.SweepResult, error) {
	if s.running.Swap(true) {
		return lifecycle.SweepResult{}, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.sweeper.SyncExpiryAlerts(ctx)
	if err != nil {
		return res, fmt.Errorf("sync expiry alerts: %w", err)
	}

	// 摘要失败不影响巡检结果，下一轮会连同旧通知一起补发。
	if err := s.sendDigest(ctx); err != nil {
		s.logger.Printf("send digest failed: %v", err)
	}

	return res, nil
}

func (s *Scheduler) sendDigest(ctx context.Context) error {
	if s.notif == nil || s.store == nil {
		return nil
	}

	items, err := s.store.ListNotificationsSince(ctx, model.ScopeAdmin, s.lastDigest)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	if err := s.notif.Notify(ctx, items); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	s.lastDigest = items[len(items)-1].CreatedAt
	return nil
}
