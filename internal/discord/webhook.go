package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength is the largest content Discord accepts in one message.
const MaxContentLength = 2000

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord: webhook returned %d: %s", e.StatusCode, e.Body)
}

type payload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

type Notifier struct {
	client     *http.Client
	webhookURL string
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		webhookURL: webhookURL,
	}
}

// Send posts message under the given username. Messages over
// MaxContentLength are split on line boundaries and posted in order; the
// first failing post aborts the rest.
func (n *Notifier) Send(ctx context.Context, username, message string) error {
	for _, part := range split(message, MaxContentLength) {
		if err := n.post(ctx, payload{Content: part, Username: username}); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) post(ctx context.Context, p payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: post message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return nil
}

func split(message string, limit int) []string {
	if utf8.RuneCountInString(message) <= limit {
		return []string{message}
	}

	var (
		parts   []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(message, "\n") {
		n := utf8.RuneCountInString(line)

		if size+n > limit {
			flush()
		}

		// A single line longer than the limit is cut by runes.
		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}

		current.WriteString(line)
		size += n
	}
	flush()

	return parts
}
