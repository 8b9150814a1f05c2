package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-sim-monitor/internal/core/constants"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

const simulationsPath = "/api/simulations"

var (
	// ErrNotFound is returned when the API answers 404 for a simulation
	ErrNotFound = errors.New("simulation not found")
	// ErrUnexpectedStatus wraps any other non-2xx answer
	ErrUnexpectedStatus = errors.New("unexpected API status")
)

// Client talks to the local platform simulations API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPageSize sets the per_page value used by ListAll
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("simulations API URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API URL must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: constants.DefaultAPITimeout},
		pageSize:   constants.DefaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Tag is a name/value pair used to filter simulations
type Tag struct {
	Name  string
	Value string
}

// ParseTag parses a name=value filter. The value may be empty; the name may not.
func ParseTag(s string) (Tag, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Tag{}, fmt.Errorf("invalid tag %q, expected name=value", s)
	}
	return Tag{Name: name, Value: strings.TrimSpace(value)}, nil
}

// ListOptions narrows GET /api/simulations
type ListOptions struct {
	ExperimentID string
	Status       string
	Tags         []Tag
	Page         int
	PerPage      int
}

// Page is one page of simulations plus the server-side total
type Page struct {
	Simulations []model.Simulation
	Total       int
}

// List fetches a single page of simulations.
func (c *Client) List(ctx context.Context, opts ListOptions) (*Page, error) {
	query := url.Values{}
	if opts.ExperimentID != "" {
		query.Set("experiment_id", opts.ExperimentID)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	for _, tag := range opts.Tags {
		query.Add("tags", tag.Name+","+tag.Value)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	resp, err := c.do(ctx, http.MethodGet, simulationsPath, query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var sims []model.Simulation
	if err := decode(resp.Body, &sims); err != nil {
		return nil, fmt.Errorf("decode simulations: %w", err)
	}

	page := &Page{Simulations: sims, Total: len(sims)}
	if total := resp.Header.Get("X-Total"); total != "" {
		if n, err := strconv.Atoi(total); err == nil {
			page.Total = n
		}
	}
	return page, nil
}

// ListAll walks every page until the reported total has been read.
func (c *Client) ListAll(ctx context.Context, opts ListOptions) ([]model.Simulation, error) {
	opts.PerPage = c.pageSize
	var all []model.Simulation

	for page := 1; page <= constants.MaxPages; page++ {
		opts.Page = page
		p, err := c.List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list page %d: %w", page, err)
		}
		all = append(all, p.Simulations...)

		if len(p.Simulations) == 0 || len(all) >= p.Total || len(p.Simulations) < opts.PerPage {
			break
		}
	}

	util.LogDebugf("Fetched %d simulations from %s", len(all), c.baseURL.String())
	return all, nil
}

// Get fetches one simulation by id.
func (c *Client) Get(ctx context.Context, id string) (*model.Simulation, error) {
	resp, err := c.do(ctx, http.MethodGet, simulationsPath+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var sim model.Simulation
	if err := decode(resp.Body, &sim); err != nil {
		return nil, fmt.Errorf("decode simulation %s: %w", id, err)
	}
	return &sim, nil
}

type statusUpdate struct {
	Status string `json:"status"`
}

// Cancel asks the platform to cancel a simulation.
func (c *Client) Cancel(ctx context.Context, id string) error {
	body, err := sonic.Marshal(statusUpdate{Status: model.StatusCanceled})
	if err != nil {
		return fmt.Errorf("encode cancel request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, simulationsPath+"/"+url.PathEscape(id), nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	util.LogInfof("Cancel requested for simulation %s", id)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	util.LogDebugf("%s %s -> %d in %v", method, u.String(), resp.StatusCode, time.Since(start))
	return resp, nil
}

// apiError mirrors the {"message": "..."} bodies returned by the platform
type apiError struct {
	Message string `json:"message"`
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := resp.Status
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); err == nil && len(data) > 0 {
		var body apiError
		if err := sonic.Unmarshal(data, &body); err == nil && strings.TrimSpace(body.Message) != "" {
			msg = strings.TrimSpace(body.Message)
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, msg)
}

func decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}
