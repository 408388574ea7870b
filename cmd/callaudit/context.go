package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"callaudit/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	client *http.Client
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// apiBase resolves the daemon API base URL from the --api flag or the
// configured bind address.
func (c *commandContext) apiBase() (string, error) {
	var addr string
	if c.apiFlag != nil {
		addr = strings.TrimSpace(*c.apiFlag)
	}
	if addr == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return "", err
		}
		addr = strings.TrimSpace(cfg.Paths.APIBind)
	}
	if addr == "" {
		return "", errors.New("daemon API address is not configured; set paths.api_bind or pass --api")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/"), nil
}

// getJSON issues a GET against the daemon API and decodes the response into out.
func (c *commandContext) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, out)
}

// postJSON issues a POST against the daemon API and decodes the response into out.
func (c *commandContext) postJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, out)
}

func (c *commandContext) doJSON(ctx context.Context, method, path string, out any) error {
	base, err := c.apiBase()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return wrapDialError(err, base)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return fmt.Errorf("daemon: %s", payload.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func wrapDialError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: %s refused the connection; start the daemon with `callaudit start`", base)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}
