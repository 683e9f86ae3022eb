// Package kegg resolves UniProt accessions to KEGG genes and their pathways through
// the KEGG REST API.
package kegg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/cache"
	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/pkg/circuitbreaker"
	"github.com/paces/backend/pkg/logger"
	"github.com/paces/backend/pkg/retry"
	"github.com/paces/backend/pkg/utils"
)

var ErrNotFound = errors.New("kegg entry not found")

type Client struct {
	baseURL     string
	organism    string
	httpClient  *http.Client
	cache       cache.Store
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(baseURL, organism string, timeout time.Duration, store cache.Store, retryConfig retry.Config) *Client {
	if retryConfig.Logger == nil {
		retryConfig.Logger = logger.GetLogger()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		organism:   organism,
		httpClient: &http.Client{Timeout: timeout},
		cache:      store,
		cb: circuitbreaker.NewCircuitBreaker("kegg", circuitbreaker.Config{
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

// ConvertUniProt maps a UniProt accession to the organism's KEGG gene id, e.g.
// Q9HWX3 to PA0887. When several lines come back the last one wins. No mapping
// yields models.KeggIDMissing.
func (c *Client) ConvertUniProt(ctx context.Context, uniprotID string) (string, error) {
	body, err := c.lookup(ctx, "conv", "conv/"+c.organism+"/up:"+uniprotID)
	if err != nil {
		return "", err
	}

	keggID := models.KeggIDMissing
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 {
			continue
		}
		if _, id, ok := strings.Cut(fields[1], ":"); ok && id != "" {
			keggID = id
		}
	}
	return keggID, nil
}

// Pathway is one entry of the PATHWAY section of a KEGG gene.
type Pathway struct {
	Code        string
	Description string
}

// Pathways returns the pathways of a KEGG gene in flat-file order. A gene without
// a PATHWAY section, or one KEGG does not know, yields no pathways.
func (c *Client) Pathways(ctx context.Context, keggID string) ([]Pathway, error) {
	body, err := c.lookup(ctx, "get", "get/"+c.organism+":"+keggID)
	if err != nil {
		return nil, err
	}
	return ParsePathways(strings.NewReader(body))
}

// ParsePathways reads the PATHWAY section out of a KEGG flat file. Section names
// occupy the first twelve columns; continuation lines leave them blank.
func ParsePathways(r io.Reader) ([]Pathway, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		out     []Pathway
		section string
	)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "///") {
			break
		}

		rest := line
		if len(line) > 0 && line[0] != ' ' {
			name, value, _ := strings.Cut(line, " ")
			section = name
			rest = value
		}
		if section != "PATHWAY" {
			continue
		}

		code, desc, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if code == "" {
			continue
		}
		out = append(out, Pathway{Code: code, Description: strings.TrimSpace(desc)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan kegg entry: %w", err)
	}
	return out, nil
}

// FormatPathways renders pathways as "code:description" with lower-cased
// descriptions, joined by " // ".
func FormatPathways(paths []Pathway) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = p.Code + ":" + strings.ToLower(p.Description)
	}
	return strings.Join(parts, " // ")
}

func (c *Client) lookup(ctx context.Context, op, path string) (string, error) {
	return cache.Fetch(ctx, c.cache, utils.LookupKey("kegg", path), func() (string, error) {
		cfg := c.retryConfig
		cfg.Operation = "kegg." + op

		start := time.Now()
		body, err := retry.DoWithResult(ctx, cfg, func() (string, error) {
			var body string
			err := c.cb.Execute(ctx, func() error {
				var err error
				body, err = c.get(ctx, path)
				return err
			})
			if errors.Is(err, ErrNotFound) || errors.Is(err, circuitbreaker.ErrCircuitOpen) {
				return "", retry.Permanent(err)
			}
			return body, err
		})
		metrics.LookupDuration.WithLabelValues("kegg").Observe(time.Since(start).Seconds())

		switch {
		case errors.Is(err, ErrNotFound):
			metrics.LookupsTotal.WithLabelValues("kegg", "miss").Inc()
			logger.Info("KEGG lookup returned nothing", zap.String("path", path))
			return "", nil
		case err != nil:
			metrics.LookupsTotal.WithLabelValues("kegg", "error").Inc()
			return "", fmt.Errorf("failed to query kegg %s: %w", path, err)
		}

		metrics.LookupsTotal.WithLabelValues("kegg", "hit").Inc()
		return body, nil
	})
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query kegg: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return "", ErrNotFound
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return "", fmt.Errorf("kegg returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", retry.Permanent(fmt.Errorf("kegg returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", ErrNotFound
	}

	logger.Debug("KEGG lookup", zap.String("path", path), zap.Int("bytes", len(body)))
	return string(body), nil
}
