package es

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
)

// Client reads legacy records from the Elasticsearch search mirror
type Client struct {
	client *elasticsearch.Client
	log    *logger.Logger
}

// TLSConfig represents TLS configuration for Elasticsearch
type TLSConfig struct {
	Enabled           bool   // Enable TLS/HTTPS
	CACertPath        string // Path to CA certificate file
	SkipVerify        bool   // Skip server certificate verification
	ConnectionTimeout int    // Connection timeout in seconds
	ResponseTimeout   int    // Response timeout in seconds
}

// NewClient creates a client and verifies the connection
func NewClient(addresses []string, username, password, apiKey string, tlsConfig *TLSConfig, log *logger.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
		APIKey:    apiKey,
	}

	if apiKey != "" {
		log.Info("Using API key authentication for Elasticsearch")
	} else if username != "" && password != "" {
		log.Info("Using username/password authentication for Elasticsearch")
	}

	connectionTimeout := 30 * time.Second
	responseTimeout := 60 * time.Second
	if tlsConfig != nil {
		if tlsConfig.ConnectionTimeout > 0 {
			connectionTimeout = time.Duration(tlsConfig.ConnectionTimeout) * time.Second
		}
		if tlsConfig.ResponseTimeout > 0 {
			responseTimeout = time.Duration(tlsConfig.ResponseTimeout) * time.Second
		}
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: responseTimeout,
		DialContext:           (&net.Dialer{Timeout: connectionTimeout}).DialContext,
	}

	if tlsConfig != nil && tlsConfig.Enabled {
		transport.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: tlsConfig.SkipVerify,
		}
		if tlsConfig.CACertPath != "" {
			caCert, err := os.ReadFile(tlsConfig.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}
			cfg.CACert = caCert
		}
	}
	cfg.Transport = transport

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to reach Elasticsearch: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("failed to reach Elasticsearch: %s", info.String())
	}

	var infoResponse struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.NewDecoder(info.Body).Decode(&infoResponse); err != nil {
		return nil, fmt.Errorf("failed to decode Elasticsearch info: %w", err)
	}
	log.Infof("Connected to Elasticsearch %s", infoResponse.Version.Number)

	return &Client{client: client, log: log}, nil
}

// ReadIndex scrolls through every document of index and returns the sources
// as records
func (c *Client) ReadIndex(ctx context.Context, index string, batchSize int) ([]common.Record, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	it, err := c.scroll(ctx, index, batchSize, time.Minute)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := it.Close(); err != nil {
			c.log.Warnf("Failed to clear scroll for %s: %v", index, err)
		}
	}()

	var records []common.Record
	for {
		hit, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if hit == nil {
			break
		}
		records = append(records, HitToRecord(hit))
	}

	c.log.Infof("Read %d documents from index %s", len(records), index)
	return records, nil
}

func (c *Client) scroll(ctx context.Context, index string, batchSize int, keepAlive time.Duration) (*scrollIterator, error) {
	req := esapi.SearchRequest{
		Index:  []string{index},
		Size:   &batchSize,
		Body:   strings.NewReader(`{"query": {"match_all": {}}, "sort": ["_doc"]}`),
		Scroll: keepAlive,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("failed to search %s: %s", index, res.String())
	}

	var page searchPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &scrollIterator{
		client:    c.client,
		scrollID:  page.ScrollID,
		keepAlive: keepAlive,
		hits:      page.Hits.Hits,
	}, nil
}

type searchPage struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []map[string]interface{} `json:"hits"`
	} `json:"hits"`
}

// scrollIterator walks the pages of one scroll
type scrollIterator struct {
	client    *elasticsearch.Client
	scrollID  string
	keepAlive time.Duration
	hits      []map[string]interface{}
	pos       int
	done      bool
}

// Next returns the next hit, or nil when the scroll is exhausted
func (s *scrollIterator) Next(ctx context.Context) (map[string]interface{}, error) {
	if s.pos >= len(s.hits) {
		if s.done || s.scrollID == "" {
			return nil, nil
		}
		if err := s.fetchNextPage(ctx); err != nil {
			return nil, err
		}
		if len(s.hits) == 0 {
			s.done = true
			return nil, nil
		}
	}

	hit := s.hits[s.pos]
	s.pos++
	return hit, nil
}

func (s *scrollIterator) fetchNextPage(ctx context.Context) error {
	req := esapi.ScrollRequest{
		ScrollID: s.scrollID,
		Scroll:   s.keepAlive,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to scroll: %s", res.String())
	}

	var page searchPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return fmt.Errorf("failed to decode scroll response: %w", err)
	}
	if page.ScrollID != "" {
		s.scrollID = page.ScrollID
	}
	s.hits = page.Hits.Hits
	s.pos = 0
	return nil
}

// Close clears the scroll on the server
func (s *scrollIterator) Close() error {
	if s.scrollID == "" {
		return nil
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := esapi.ClearScrollRequest{ScrollID: []string{s.scrollID}}
	res, err := req.Do(closeCtx, s.client)
	if err != nil {
		return fmt.Errorf("failed to clear scroll: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to clear scroll: %s", res.String())
	}

	s.scrollID = ""
	return nil
}

// HitToRecord returns the _source of a search hit. The document id fills
// "id" when the source has none, and the index name is kept under
// metadata.source_index.
func HitToRecord(hit map[string]interface{}) common.Record {
	rec := make(common.Record)
	if src, ok := common.AsObject(hit["_source"]); ok {
		for k, v := range src {
			rec[k] = v
		}
	}
	if id, ok := hit["_id"]; ok && common.IsEmpty(rec["id"]) {
		rec["id"] = id
	}
	if index, ok := hit["_index"].(string); ok && index != "" {
		rec.Set("metadata.source_index", index)
	}
	return rec
}
