package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sori/internal/logging"
	"sori/internal/vocab"
)

// maxDocumentBytes caps how much of a response body is read. Student
// vocabularies are tens of kilobytes; anything near the cap is not one.
const maxDocumentBytes = 8 << 20

// Fetcher retrieves one repository's vocabulary document.
type Fetcher interface {
	Fetch(ctx context.Context, repo string) (*vocab.Document, error)
}

// HTTPFetcher pulls data/vocab.json from a raw-content host, trying each
// configured branch in order. Any failure on a branch, whether an HTTP
// status, a network error, or malformed JSON, falls through to the next.
type HTTPFetcher struct {
	baseURL  string
	user     string
	branches []string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPFetcher constructs a fetcher for the given GitHub user. An empty
// branch list defaults to master then main.
func NewHTTPFetcher(baseURL, user string, branches []string, timeout time.Duration, logger *slog.Logger) (*HTTPFetcher, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("base URL required")
	}
	if strings.TrimSpace(user) == "" {
		return nil, errors.New("user required")
	}
	if len(branches) == 0 {
		branches = []string{"master", "main"}
	}
	return &HTTPFetcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		branches: append([]string(nil), branches...),
		client:   &http.Client{Timeout: timeout},
		logger:   logging.NewComponentLogger(logger, "merge"),
	}, nil
}

// Fetch tries each branch until one serves a parseable document.
func (f *HTTPFetcher) Fetch(ctx context.Context, repo string) (*vocab.Document, error) {
	var lastErr error
	for _, branch := range f.branches {
		url := fmt.Sprintf("%s/%s/%s/%s/data/vocab.json", f.baseURL, f.user, repo, branch)
		doc, err := f.fetchOne(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Debug("branch fetch failed",
				logging.String("url", url),
				logging.Error(err))
			lastErr = err
			continue
		}
		return doc, nil
	}
	return nil, fmt.Errorf("fetch %s: %w", repo, lastErr)
}

func (f *HTTPFetcher) fetchOne(ctx context.Context, url string) (*vocab.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, err
	}
	return vocab.ParseDocument(body)
}
