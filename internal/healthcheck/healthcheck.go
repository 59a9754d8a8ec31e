package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var ErrInvalidTarget = errors.New("invalid probe target")

// Result describes the outcome of one probe. Healthy is the only field the
// caller acts on; the rest is kept for logs and metrics.
type Result struct {
	Healthy    bool
	Attempts   int
	StatusCode int
	Duration   time.Duration
	LastErr    error
}

type Prober struct {
	client    *http.Client
	attempts  int
	delay     time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewProber creates a prober making at most attempts requests per target,
// waiting delay between two of them. timeout bounds each single request.
func NewProber(attempts int, delay, timeout time.Duration, userAgent string, logger *slog.Logger) *Prober {
	if attempts < 1 {
		attempts = 1
	}

	return &Prober{
		client: &http.Client{
			Timeout: timeout,
		},
		attempts:  attempts,
		delay:     delay,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Probe checks whether target answers a GET with a 2xx status. A non-2xx
// answer is retried; a request that fails outright (connection error,
// timeout) ends the probe as down without further attempts. An error is
// returned only when target is not a usable http(s) URL or ctx is cancelled.
func (p *Prober) Probe(ctx context.Context, target string) (Result, error) {
	if err := validateTarget(target); err != nil {
		return Result{}, err
	}

	var res Result
	start := time.Now()

	for attempt := 1; attempt <= p.attempts; attempt++ {
		res.Attempts = attempt

		status, err := p.get(ctx, target)
		res.StatusCode = status
		res.LastErr = err

		if err == nil && status >= 200 && status <= 299 {
			res.Healthy = true
			res.Duration = time.Since(start)
			return res, nil
		}

		if err != nil {
			res.Duration = time.Since(start)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			// A request that fails outright ends the probe as down.
			p.logger.Debug("Probe request failed",
				slog.String("url", target),
				slog.Int("attempt", attempt),
				slog.Any("err", err))
			return res, nil
		}

		p.logger.Debug("Probe attempt failed",
			slog.String("url", target),
			slog.Int("attempt", attempt),
			slog.Int("status", status))

		if attempt == p.attempts {
			break
		}

		select {
		case <-ctx.Done():
			res.Duration = time.Since(start)
			return res, ctx.Err()
		case <-time.After(p.delay):
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (p *Prober) get(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	// Drain so the connection can be reused by the next attempt.
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	return res.StatusCode, nil
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q must use http or https scheme", ErrInvalidTarget, target)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidTarget, target)
	}

	return nil
}
