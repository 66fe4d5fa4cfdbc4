// Package senat provides a connector for fetching amendments, discussion
// order and the senators registry from the publicly available feeds at
// senat.fr.
package senat

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/pipeline"
)

// DefaultBaseURL is the base URL for amendment feeds.
const DefaultBaseURL = "http://www.senat.fr"

// DefaultDataURL is the base URL for open-data exports.
const DefaultDataURL = "http://data.senat.fr"

// DefaultUserAgent is the User-Agent header sent with requests.
const DefaultUserAgent = "zam-senat-connector/1.0"

// DefaultRateLimit is the minimum interval between requests.
const DefaultRateLimit = 500 * time.Millisecond

// Phase selects the discussion-order feed.
type Phase string

const (
	PhaseCommission Phase = "commission"
	PhaseSeance     Phase = "seance"
)

// ParsePhase validates a phase name.
func ParsePhase(name string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(name))) {
	case PhaseCommission:
		return PhaseCommission, nil
	case PhaseSeance:
		return PhaseSeance, nil
	}
	return "", fmt.Errorf("unknown phase %q (want %q or %q)", name, PhaseCommission, PhaseSeance)
}

// ConnectorConfig holds configuration for the Connector.
type ConnectorConfig struct {
	// BaseURL is the base URL for amendment feeds.
	BaseURL string

	// DataURL is the base URL for open-data exports.
	DataURL string

	// HTTPClient is the underlying HTTP client.
	HTTPClient *http.Client

	// RateLimit is the minimum interval between requests.
	RateLimit time.Duration

	// UserAgent is the User-Agent header.
	UserAgent string

	Logger *zap.Logger
}

// DefaultConfig returns a ConnectorConfig with sensible defaults.
func DefaultConfig() ConnectorConfig {
	return ConnectorConfig{
		BaseURL:    DefaultBaseURL,
		DataURL:    DefaultDataURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		RateLimit:  DefaultRateLimit,
		UserAgent:  DefaultUserAgent,
	}
}

// Connector fetches raw amendment data from senat.fr.
type Connector struct {
	config       ConnectorConfig
	lastRequest  time.Time
	lastReqMutex sync.Mutex
}

// NewConnector creates a new connector with the given configuration.
func NewConnector(config ConnectorConfig) *Connector {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.DataURL == "" {
		config.DataURL = DefaultDataURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.RateLimit == 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.DataURL = strings.TrimRight(config.DataURL, "/")
	return &Connector{config: config}
}

// NewDefaultConnector creates a connector with default configuration.
func NewDefaultConnector() *Connector {
	return NewConnector(DefaultConfig())
}

// rateLimit waits until the minimum interval since the previous request
// has elapsed.
func (c *Connector) rateLimit(ctx context.Context) error {
	c.lastReqMutex.Lock()
	defer c.lastReqMutex.Unlock()

	if elapsed := time.Since(c.lastRequest); elapsed < c.config.RateLimit {
		timer := time.NewTimer(c.config.RateLimit - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// fetch performs an HTTP GET request with rate limiting. A 404 response
// is reported as errs.ErrNotFound.
func (c *Connector) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.rateLimit(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.config.Logger.Debug("fetching", zap.String("url", url))
	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// AmendementsURL returns the URL of the full amendment set of a text.
func (c *Connector) AmendementsURL(session string, num int) string {
	return fmt.Sprintf("%s/amendements/%s/%d/jeu_complet_%s_%d.csv", c.config.BaseURL, session, num, session, num)
}

// DiscussionURL returns the URL of the discussion-order feed of a text.
func (c *Connector) DiscussionURL(session string, num int, phase Phase) string {
	return fmt.Sprintf("%s/en%s/%s/%d/liste_discussion.json", c.config.BaseURL, phase, session, num)
}

// SenateursURL returns the URL of the senators registry export.
func (c *Connector) SenateursURL() string {
	return c.config.DataURL + "/data/senateurs/ODSEN_GENERAL.csv"
}

// FetchAmendements fetches every amendment deposited on a text. A text
// with no amendment yet yields an error wrapping errs.ErrNotFound.
func (c *Connector) FetchAmendements(ctx context.Context, session string, num int) ([]amendement.Row, error) {
	body, err := c.fetch(ctx, c.AmendementsURL(session, num))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch amendements %s/%d: %w", session, num, err)
	}
	return ParseAmendementsCSV(body)
}

// ParseAmendementsCSV decodes a "jeu complet" export: Windows-1252, a
// title line, then a tab-separated table with a header row.
func ParseAmendementsCSV(body []byte) ([]amendement.Row, error) {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode amendements: %w", err)
	}
	if newline := bytes.IndexByte(decoded, '\n'); newline >= 0 {
		decoded = decoded[newline+1:]
	} else {
		decoded = nil
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read amendements header: %w", err)
	}

	var rows []amendement.Row
	for lineIndex := 2; ; lineIndex++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read amendements line %d: %w", lineIndex, err)
		}
		row := make(amendement.Row, len(header))
		for columnIndex, column := range header {
			if columnIndex < len(record) {
				row[column] = record[columnIndex]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type discussionFeed struct {
	Subdivisions []struct {
		Libelle     string           `json:"libelle_subdivision"`
		Amendements []amendement.Row `json:"Amendements"`
	} `json:"Subdivisions"`
}

// FetchDiscussion fetches the discussion order of a text, flattened in
// order: the index of each row is its discussion position.
func (c *Connector) FetchDiscussion(ctx context.Context, session string, num int, phase Phase) ([]pipeline.DiscussionRow, error) {
	body, err := c.fetch(ctx, c.DiscussionURL(session, num, phase))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discussion order %s/%d: %w", session, num, err)
	}
	return ParseDiscussion(body)
}

// ParseDiscussion decodes a "liste_discussion" feed.
func ParseDiscussion(body []byte) ([]pipeline.DiscussionRow, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var feed discussionFeed
	if err := decoder.Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode discussion order: %w", err)
	}

	var rows []pipeline.DiscussionRow
	for _, subdivision := range feed.Subdivisions {
		for _, row := range subdivision.Amendements {
			rows = append(rows, pipeline.DiscussionRow{Subdivision: subdivision.Libelle, Row: row})
		}
	}
	return rows, nil
}

// FetchSenateurs fetches the senators registry. Its signature matches
// amendement.Loader so it can back an amendement.RegistryCache.
func (c *Connector) FetchSenateurs(ctx context.Context) (amendement.Senateurs, error) {
	body, err := c.fetch(ctx, c.SenateursURL())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch senateurs: %w", err)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode senateurs: %w", err)
	}
	return amendement.ParseSenateurs(bytes.NewReader(decoded))
}
