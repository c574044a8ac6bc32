package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/archive-export/pkg/enums"
	pkgerrors "github.com/angelmondragon/archive-export/pkg/errors"
	"github.com/angelmondragon/archive-export/pkg/types"
)

const (
	storesPath            = "/store"
	dateLayout            = "2006-01-02"
	defaultTimeout        = 60 * time.Second
	responseBodyReadLimit = 1024
	StatusOK              = 200
)

// Client talks to the archive REST API with a static api-token credential.
type Client struct {
	httpClient *http.Client
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds an archive client for the given API token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "archive api token is required")
	}

	client := &Client{
		token:      trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Metadata is the status envelope attached to archive responses.
type Metadata struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK reports whether the archive accepted the request.
func (m Metadata) OK() bool {
	return m.Code == StatusOK
}

// Store is one entry of the store listing.
type Store struct {
	ID    string
	Group string
	Name  string
}

// Page is one batch of archive records.
type Page struct {
	Metadata Metadata
	Values   []types.Record
	// Next is the continuation cursor; empty when the server sent null.
	Next    string
	HasMore bool
}

// PageQuery selects one page of a store's archive.
type PageQuery struct {
	StoreID   string
	StartDate time.Time
	Cursor    string
}

// ListStores fetches every store visible to the credential.
func (c *Client) ListStores(ctx context.Context, baseURL string) ([]Store, error) {
	endpoint := buildURL(baseURL, storesPath)
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute store listing request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "store listing request failed")
	}

	var apiResp struct {
		Metadata *Metadata `json:"metadata"`
		Data     []struct {
			ID    types.Value `json:"id"`
			Group types.Value `json:"group"`
			Name  types.Value `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode store listing response")
	}
	if apiResp.Metadata != nil && !apiResp.Metadata.OK() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store listing returned non-success status").
			WithDetails(map[string]any{"code": apiResp.Metadata.Code, "message": apiResp.Metadata.Message})
	}
	if apiResp.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store listing response has no data")
	}

	stores := make([]Store, 0, len(apiResp.Data))
	for _, s := range apiResp.Data {
		if s.ID.IsNull() || s.ID.Text() == "" {
			continue
		}
		stores = append(stores, Store{
			ID:    s.ID.Text(),
			Group: s.Group.Text(),
			Name:  s.Name.Text(),
		})
	}
	return stores, nil
}

// FetchPage requests one archive page. A non-success metadata code is not an
// error here; callers inspect Page.Metadata.
func (c *Client) FetchPage(ctx context.Context, baseURL string, category enums.Category, q PageQuery) (*Page, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown category %q", category))
	}
	if strings.TrimSpace(q.StoreID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	params := url.Values{}
	params.Set("storeId", q.StoreID)
	params.Set("startDate", q.StartDate.Format(dateLayout))
	if q.Cursor != "" {
		params.Set("next", q.Cursor)
	}
	endpoint := buildURL(baseURL, category.Endpoint()) + "?" + params.Encode()

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute archive request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read archive response")
	}

	var apiResp struct {
		Metadata *Metadata `json:"metadata"`
		Data     *struct {
			Values  []types.Record  `json:"values"`
			Next    json.RawMessage `json:"next"`
			HasMore bool            `json:"hasMore"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil || apiResp.Metadata == nil {
		if err == nil {
			err = fmt.Errorf("missing metadata")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %w: %s", resp.StatusCode, err, snippet(body)), "decode archive response")
	}

	page := &Page{Metadata: *apiResp.Metadata}
	if !page.Metadata.OK() {
		return page, nil
	}
	if apiResp.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "archive response has no data")
	}
	next, err := cursorText(apiResp.Data.Next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode archive cursor")
	}
	page.Values = apiResp.Data.Values
	page.Next = next
	page.HasMore = apiResp.Data.HasMore
	return page, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "api-token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

func cursorText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var v types.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return v.Text(), nil
}

func snippet(body []byte) string {
	if int64(len(body)) > responseBodyReadLimit {
		body = body[:responseBodyReadLimit]
	}
	return strings.TrimSpace(string(body))
}

func buildURL(baseURL, path string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
