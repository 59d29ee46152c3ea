package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"golang.org/x/sync/errgroup"

	"meetup-board/internal/access"
	"meetup-board/internal/api"
	"meetup-board/internal/branding"
	"meetup-board/internal/embeds"
	"meetup-board/internal/lifecycle"
	"meetup-board/internal/notifier"
	"meetup-board/internal/scheduler"
	"meetup-board/internal/storage"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server    ServerConfig             `yaml:"server"`
	Database  DatabaseConfig           `yaml:"database"`
	Admin     AdminConfig              `yaml:"admin"`
	Lifecycle lifecycle.Config         `yaml:"lifecycle"`
	Sweep     scheduler.Config         `yaml:"sweep"`
	Email     notifier.EmailConfig     `yaml:"email"`
	Forwarder notifier.ForwarderConfig `yaml:"forwarder"`
	Embeds    embeds.Config            `yaml:"embeds"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AdminConfig struct {
	Emails []string `yaml:"emails"`
}

// httpServer 抽象 HTTP 服务器，便于测试替换。
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// sweepScheduler 抽象巡检调度器。
type sweepScheduler interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (lifecycle.SweepResult, error)
}

// appDeps 汇集应用各组件。
type appDeps struct {
	sched   sweepScheduler
	handler http.Handler
}

func main() {
	once := flag.Bool("once", false, "run a single expiry sweep and exit")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		res, err := runOnceManual(ctx, cfg, buildDeps)
		if err != nil {
			log.Printf("manual sweep error: %v", err)
			return
		}
		log.Printf("manual sweep done: %d expiring soon, %d expired", res.ExpiringSoon, res.Expired)
		return
	}

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		log.Printf("init error: %v", err)
		return
	}
	defer cleanup()

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: deps.handler}

	log.Printf("listening on %s", addr)
	if err := runServer(ctx, srv, deps.sched, 5*time.Second); err != nil {
		log.Printf("server error: %v", err)
	}
}

// runServer 同时运行 HTTP 服务与调度器，上下文取消时优雅关闭。
func runServer(ctx context.Context, srv httpServer, sched sweepScheduler, shutdownTimeout time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	g.Go(func() error {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		}
	})

	return g.Wait()
}

// runOnceManual 构建依赖并执行单次巡检，供命令行手动触发。
func runOnceManual(ctx context.Context, cfg AppConfig, build func(AppConfig) (appDeps, func(), error)) (lifecycle.SweepResult, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return lifecycle.SweepResult{}, fmt.Errorf("build deps: %w", err)
	}
	defer cleanup()

	return deps.sched.RunOnce(ctx)
}

// buildDeps 按配置组装存储、引擎、调度器与 HTTP 处理器。
func buildDeps(cfg AppConfig) (appDeps, func(), error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "board.db"
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return appDeps{}, nil, fmt.Errorf("init store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	forwarder := notifier.NewFormForwarder(cfg.Forwarder, nil)
	engine := lifecycle.NewEngine(store, forwarder, cfg.Lifecycle)
	sched := scheduler.NewScheduler(engine, store, buildNotifier(cfg.Email), cfg.Sweep)

	embedSvc := embeds.NewService(store, cfg.Embeds)
	brand := branding.NewClient(nil, nil)
	checker := access.NewChecker(cfg.Admin.Emails)
	handler := api.NewHandler(store, engine, sched, embedSvc, brand, checker)

	return appDeps{sched: sched, handler: handler}, cleanup, nil
}

func loadConfig() (AppConfig, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// buildNotifier 邮件配置不全时回退为日志通知器。
func buildNotifier(cfg notifier.EmailConfig) scheduler.Notifier {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" || len(cfg.To) == 0 {
		log.Printf("email notifier disabled: missing host/port/from/to")
		return notifier.NewLogNotifier(nil)
	}
	return notifier.NewEmailNotifier(cfg, nil)
}
