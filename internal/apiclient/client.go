package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joelkehle/nac-tco/internal/catalog"
	"github.com/joelkehle/nac-tco/internal/store"
	"github.com/joelkehle/nac-tco/internal/tco"
)

// Client talks to a running nac-tco server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// DoJSON sends payload (nil for none) and returns the raw response body.
// Error envelopes come back as *tco.Error carrying the server's code and
// status.
func (c *Client) DoJSON(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(blob)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	blob, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return blob, resp.StatusCode, decodeError(method, path, resp.StatusCode, blob)
	}
	return blob, resp.StatusCode, nil
}

func decodeError(method, path string, status int, blob []byte) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(blob, &env); err != nil || env.Error.Code == "" {
		return &tco.Error{
			Code:    tco.CodeInternal,
			Message: fmt.Sprintf("%s %s failed status=%d body=%s", method, path, status, strings.TrimSpace(string(blob))),
			Status:  status,
		}
	}
	return &tco.Error{Code: env.Error.Code, Message: env.Error.Message, Status: status}
}

func (c *Client) getJSON(ctx context.Context, method, path string, payload, dst any) error {
	out, _, err := c.DoJSON(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	_, _, err := c.DoJSON(ctx, http.MethodGet, "/v1/health", nil)
	return err
}

func (c *Client) Vendors(ctx context.Context) ([]catalog.Vendor, error) {
	var resp struct {
		Vendors []catalog.Vendor `json:"vendors"`
	}
	if err := c.getJSON(ctx, http.MethodGet, "/v1/vendors", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Vendors, nil
}

// Calculation is a server-side comparison run. RunID is empty when the
// server has no store.
type Calculation struct {
	Result *tco.Result `json:"result"`
	RunID  string      `json:"run_id"`
}

func (c *Client) Calculate(ctx context.Context, org tco.Organization) (Calculation, error) {
	var out Calculation
	err := c.getJSON(ctx, http.MethodPost, "/v1/calculate", map[string]any{"organization": org}, &out)
	return out, err
}

func (c *Client) CalculateProfile(ctx context.Context, profileID string) (Calculation, error) {
	var out Calculation
	err := c.getJSON(ctx, http.MethodPost, "/v1/calculate", map[string]any{"profile_id": profileID}, &out)
	return out, err
}

func (c *Client) Sweep(ctx context.Context, req tco.SweepRequest) (tco.SeriesByVendor, error) {
	var resp struct {
		Sensitivity tco.SeriesByVendor `json:"sensitivity"`
	}
	if err := c.getJSON(ctx, http.MethodPost, "/v1/sensitivity", req, &resp); err != nil {
		return tco.SeriesByVendor{}, err
	}
	return resp.Sensitivity, nil
}

func (c *Client) Drivers(ctx context.Context, org tco.Organization, vendorIDs ...string) (map[string][]tco.SensitivityDriver, error) {
	var resp struct {
		Drivers map[string][]tco.SensitivityDriver `json:"drivers"`
	}
	if err := c.getJSON(ctx, http.MethodPost, "/v1/drivers", map[string]any{"organization": org, "vendor_ids": vendorIDs}, &resp); err != nil {
		return nil, err
	}
	return resp.Drivers, nil
}

// ReportOptions selects the optional report sections.
type ReportOptions struct {
	Title   string            `json:"title,omitempty"`
	Drivers bool              `json:"drivers,omitempty"`
	Summary bool              `json:"summary,omitempty"`
	Sweep   *tco.SweepRequest `json:"sweep,omitempty"`
}

// Report returns the rendered document in format (markdown, html or pdf).
func (c *Client) Report(ctx context.Context, format string, org tco.Organization, opts ReportOptions) ([]byte, error) {
	payload := struct {
		Organization tco.Organization `json:"organization"`
		ReportOptions
	}{org, opts}
	out, _, err := c.DoJSON(ctx, http.MethodPost, "/v1/report?format="+url.QueryEscape(format), payload)
	return out, err
}

func (c *Client) SaveProfile(ctx context.Context, id string, org tco.Organization) (store.Profile, error) {
	var resp struct {
		Profile store.Profile `json:"profile"`
	}
	err := c.getJSON(ctx, http.MethodPost, "/v1/profiles", map[string]any{"id": id, "organization": org}, &resp)
	return resp.Profile, err
}

func (c *Client) GetProfile(ctx context.Context, id string) (store.Profile, error) {
	var resp struct {
		Profile store.Profile `json:"profile"`
	}
	err := c.getJSON(ctx, http.MethodGet, "/v1/profiles/"+url.PathEscape(id), nil, &resp)
	return resp.Profile, err
}

func (c *Client) ListProfiles(ctx context.Context) ([]store.Profile, error) {
	var resp struct {
		Profiles []store.Profile `json:"profiles"`
	}
	err := c.getJSON(ctx, http.MethodGet, "/v1/profiles", nil, &resp)
	return resp.Profiles, err
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	_, _, err := c.DoJSON(ctx, http.MethodDelete, "/v1/profiles/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) ListRuns(ctx context.Context, profileID string, limit int) ([]store.Run, error) {
	q := url.Values{}
	if profileID != "" {
		q.Set("profile_id", profileID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Runs []store.Run `json:"runs"`
	}
	err := c.getJSON(ctx, http.MethodGet, path, nil, &resp)
	return resp.Runs, err
}
