package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// ForwarderConfig 表单转发端点配置。
type ForwarderConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Token    string `yaml:"token" json:"token"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// FormForwarder 将提交内容转发给外部表单路由函数。
// 未配置端点时调用直接跳过；任何失败都只影响转发本身。
type FormForwarder struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *log.Logger
}

// NewFormForwarder 创建转发器，超时默认 10 秒。
func NewFormForwarder(cfg ForwarderConfig, client *http.Client) *FormForwarder {
	if client == nil {
		timeout := 10 * time.Second
		if cfg.Timeout != "" {
			if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
				timeout = d
			}
		}
		client = &http.Client{Timeout: timeout}
	}
	return &FormForwarder{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   client,
		logger:   log.New(os.Stdout, "[forwarder] ", log.LstdFlags),
	}
}

// forwardResponse 对应端点返回结构。
type forwardResponse struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped"`
	Message string `json:"message"`
}

// Forward 以 JSON POST 调用端点。实现 lifecycle.Forwarder。
func (f *FormForwarder) Forward(ctx context.Context, kind string, payload map[string]any) error {
	if f.endpoint == "" {
		f.logger.Printf("forward %s skipped: endpoint not configured", kind)
		return nil
	}

	body, err := json.Marshal(map[string]any{"kind": kind, "payload": payload})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward %s: %w", kind, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("forward %s: status %d: %s", kind, resp.StatusCode, bytes.TrimSpace(raw))
	}

	var parsed forwardResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Skipped {
			f.logger.Printf("forward %s skipped by endpoint: %s", kind, parsed.Message)
			return nil
		}
		if !parsed.OK {
			return fmt.Errorf("forward %s rejected: %s", kind, parsed.Message)
		}
	}
	return nil
}
