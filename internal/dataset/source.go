package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
)

// Loader reads and normalizes a dataset from a file path or HTTP(S) URL.
type Loader struct {
	Client *http.Client

	// Attempts is the number of tries for a remote fetch. Only transport
	// errors and 5xx responses are retried. Zero means one attempt.
	Attempts uint

	Logger *zap.Logger
}

// NewLoader returns a Loader with a client using the given timeout.
func NewLoader(timeout time.Duration, attempts uint, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		Client:   &http.Client{Timeout: timeout},
		Attempts: attempts,
		Logger:   logger,
	}
}

// IsURL reports whether source names a remote dataset.
func IsURL(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load reads and normalizes source. Any failure to obtain the bytes wraps
// ErrSourceUnavailable.
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	start := time.Now()
	var body io.ReadCloser
	var err error
	if IsURL(source) {
		body, err = l.fetch(ctx, source)
	} else {
		body, err = os.Open(source)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	t, err := Parse(source, body)
	if err != nil {
		return nil, err
	}

	logger := l.logger()
	logger.Info("loaded dataset",
		zap.String("source", source),
		zap.String("schema", t.Schema()),
		zap.Int("rows", t.Len()),
		zap.Int("dropped", t.Stats().Dropped()),
		zap.Duration("elapsed", time.Since(start)))
	for _, w := range t.Warnings() {
		logger.Warn("schema incomplete", zap.String("source", source), zap.String("column", string(w.Column)))
	}
	return t, nil
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.url, e.code)
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := l.Attempts
	if attempts == 0 {
		attempts = 1
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", "track-dashboard/1.0")

	var body io.ReadCloser
	err = retry.Do(
		func() error {
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				resp.Body.Close()
				return &statusError{url: url, code: resp.StatusCode}
			}
			body = resp.Body
			return nil
		},
		retry.Attempts(attempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var serr *statusError
			if errors.As(err, &serr) {
				return serr.code/100 == 5
			}
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			l.logger().Warn("fetch failed, retrying", zap.String("url", url), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return body, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
