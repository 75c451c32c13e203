// Package executor is a client for a Piston-compatible code execution
// service.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Config struct {
	BaseURL            string
	CompileTimeout     time.Duration
	RunTimeout         time.Duration
	CompileMemoryLimit int64
	RunMemoryLimit     int64
	RuntimesTTL        time.Duration
}

type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type Request struct {
	Language           string   `json:"language"`
	Version            string   `json:"version"`
	Files              []File   `json:"files"`
	Stdin              string   `json:"stdin"`
	Args               []string `json:"args"`
	CompileTimeout     int64    `json:"compile_timeout"`
	RunTimeout         int64    `json:"run_timeout"`
	CompileMemoryLimit int64    `json:"compile_memory_limit"`
	RunMemoryLimit     int64    `json:"run_memory_limit"`
}

// Stage is the outcome of the compile or run step. Code is nil when the
// process was killed by a signal.
type Stage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
}

// ExitCode returns the process exit code, or -1 when there is none.
func (s Stage) ExitCode() int {
	if s.Code == nil {
		return -1
	}
	return *s.Code
}

type Result struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Compile  *Stage `json:"compile,omitempty"`
	Run      Stage  `json:"run"`
}

type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
}

// APIError is a non-200 answer from the execution service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("executor returned %d: %s", e.Status, e.Message)
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	runtimes  []Runtime
	fetchedAt time.Time
}

// New returns a client for the service at cfg.BaseURL, e.g.
// https://emkc.org/api/v2/piston.
func New(cfg Config, client *http.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = &http.Client{Timeout: cfg.CompileTimeout + cfg.RunTimeout + 10*time.Second}
	}
	return &Client{cfg: cfg, http: client, now: time.Now}
}

// Execute runs one program. Timeouts and memory limits left at zero are
// taken from the client config.
func (c *Client) Execute(ctx context.Context, req Request) (Result, error) {
	if req.Version == "" {
		req.Version = "*"
	}
	if req.CompileTimeout == 0 {
		req.CompileTimeout = c.cfg.CompileTimeout.Milliseconds()
	}
	if req.RunTimeout == 0 {
		req.RunTimeout = c.cfg.RunTimeout.Milliseconds()
	}
	if req.CompileMemoryLimit == 0 {
		req.CompileMemoryLimit = c.cfg.CompileMemoryLimit
	}
	if req.RunMemoryLimit == 0 {
		req.RunMemoryLimit = c.cfg.RunMemoryLimit
	}
	if req.Args == nil {
		req.Args = []string{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encoding execute request: %w", err)
	}
	var res Result
	if err := c.do(ctx, http.MethodPost, "/execute", body, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Runtimes lists the installed languages. The list is cached for
// RuntimesTTL and concurrent refreshes share one request.
func (c *Client) Runtimes(ctx context.Context) ([]Runtime, error) {
	c.mu.Lock()
	if c.runtimes != nil && c.now().Sub(c.fetchedAt) < c.cfg.RuntimesTTL {
		out := c.runtimes
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("runtimes", func() (any, error) {
		var list []Runtime
		if err := c.do(ctx, http.MethodGet, "/runtimes", nil, &list); err != nil {
			return nil, err
		}
		if list == nil {
			list = []Runtime{}
		}
		c.mu.Lock()
		c.runtimes = list
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Runtime), nil
}

// Ping reports whether the service answers the runtimes endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Runtimes(ctx)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.cfg.BaseURL == "" {
		return errors.New("executor base URL is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling executor %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding executor %s response: %w", path, err)
	}
	return nil
}
