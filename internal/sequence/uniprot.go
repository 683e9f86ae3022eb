// Package sequence downloads UniProt FASTA records for the filtered proteins and
// checks which identifiers came back.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/cache"
	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/pkg/circuitbreaker"
	"github.com/paces/backend/pkg/logger"
	"github.com/paces/backend/pkg/retry"
	"github.com/paces/backend/pkg/utils"
)

var ErrNotFound = errors.New("entry not found")

// statusError is a non-2xx answer worth retrying (429, 5xx).
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("uniprot returned status %d", e.code) }

type UniProtClient struct {
	baseURL     string
	httpClient  *http.Client
	cache       cache.Store
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewUniProtClient(baseURL string, timeout time.Duration, store cache.Store, retryConfig retry.Config) *UniProtClient {
	retryConfig.Operation = "uniprot.fasta"
	if retryConfig.Logger == nil {
		retryConfig.Logger = logger.GetLogger()
	}

	return &UniProtClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      store,
		cb: circuitbreaker.NewCircuitBreaker("uniprot", circuitbreaker.Config{
			MaxRequests:      1,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 1,
			IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, ErrNotFound) },
			Logger:           logger.GetLogger(),
		}),
		retryConfig: retryConfig,
	}
}

// FetchFASTA returns the FASTA text UniProt serves for id. An unknown id yields
// an empty string and no error.
func (c *UniProtClient) FetchFASTA(ctx context.Context, id string) (string, error) {
	return cache.Fetch(ctx, c.cache, utils.LookupKey("uniprot", "fasta", id), func() (string, error) {
		start := time.Now()
		body, err := retry.DoWithResult(ctx, c.retryConfig, func() (string, error) {
			var body string
			err := c.cb.Execute(ctx, func() error {
				var err error
				body, err = c.get(ctx, id)
				return err
			})
			if errors.Is(err, ErrNotFound) || errors.Is(err, circuitbreaker.ErrCircuitOpen) {
				return "", retry.Permanent(err)
			}
			return body, err
		})
		metrics.LookupDuration.WithLabelValues("uniprot").Observe(time.Since(start).Seconds())

		switch {
		case errors.Is(err, ErrNotFound):
			metrics.LookupsTotal.WithLabelValues("uniprot", "miss").Inc()
			logger.Info("UniProt entry not found", zap.String("uniprot_id", id))
			return "", nil
		case err != nil:
			metrics.LookupsTotal.WithLabelValues("uniprot", "error").Inc()
			return "", fmt.Errorf("failed to fetch %s: %w", id, err)
		}

		metrics.LookupsTotal.WithLabelValues("uniprot", "hit").Inc()
		return body, nil
	})
}

func (c *UniProtClient) get(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(id)+".fasta", nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query uniprot: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return "", ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return "", &statusError{code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return "", retry.Permanent(&statusError{code: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrNotFound
	}

	logger.Debug("UniProt entry fetched", zap.String("uniprot_id", id), zap.Int("bytes", len(body)))
	return string(body), nil
}
