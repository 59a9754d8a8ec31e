package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pageSize = 100

// Client talks to the Notion REST API with a bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string
	props      Properties
	dump       io.Writer
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithDump appends every raw query response body to w.
func WithDump(w io.Writer) Option {
	return func(cl *Client) {
		cl.dump = w
	}
}

// WithLogger sets the logger used for problems that do not abort a call.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a client for the API rooted at baseURL, e.g.
// https://api.notion.com/v1.
func New(baseURL, token, version string, props Properties, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		version:    version,
		props:      props,
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

// QueryDatabase returns every project of the database, following pagination
// cursors until the API reports no more results. A cursor the API hands out
// twice is a ParseError.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Project, error) {
	if c.token == "" || databaseID == "" {
		return nil, ErrMissingCredentials
	}

	endpoint := c.baseURL + "/databases/" + url.PathEscape(databaseID) + "/query"

	var (
		projects []Project
		cursor   string
		seen     = make(map[string]struct{})
	)

	for {
		body, err := c.do(ctx, http.MethodPost, endpoint, queryRequest{PageSize: pageSize, StartCursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("query database %s: %w", databaseID, err)
		}

		if c.dump != nil {
			if _, err := c.dump.Write(append(body, '\n')); err != nil {
				c.logger.Warn("Failed to dump query response",
					slog.String("database", databaseID),
					slog.Any("err", err))
			}
		}

		var res queryResponse
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, &ParseError{Index: -1, Property: "body", Reason: err.Error()}
		}
		if res.Results == nil {
			return nil, &ParseError{Index: -1, Property: "results", Reason: "missing"}
		}

		for _, p := range *res.Results {
			project, err := parseProject(len(projects), p, c.props)
			if err != nil {
				return nil, err
			}
			projects = append(projects, project)
		}

		if !res.HasMore || res.NextCursor == nil || *res.NextCursor == "" {
			return projects, nil
		}
		cursor = *res.NextCursor
		if _, ok := seen[cursor]; ok {
			return nil, &ParseError{Index: -1, Property: "next_cursor", Reason: fmt.Sprintf("cursor %q repeated", cursor)}
		}
		seen[cursor] = struct{}{}
	}
}

type statusUpdate struct {
	Properties map[string]statusValue `json:"properties"`
}

type statusValue struct {
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
}

// UpdateStatus sets the status property of one page to label.
func (c *Client) UpdateStatus(ctx context.Context, recordID, label string) error {
	endpoint := c.baseURL + "/pages/" + url.PathEscape(recordID)

	var value statusValue
	value.Status.Name = label

	payload := statusUpdate{
		Properties: map[string]statusValue{c.props.Status: value},
	}

	if _, err := c.do(ctx, http.MethodPatch, endpoint, payload); err != nil {
		return fmt.Errorf("update page %s: %w", recordID, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.version)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{}
		_ = json.Unmarshal(body, apiErr)
		apiErr.StatusCode = res.StatusCode
		return nil, apiErr
	}

	return body, nil
}
