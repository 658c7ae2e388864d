package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gsbingo17/cms-to-commerce/pkg/cache"
	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
)

// enrichedFields are copied from the content service when the record has none
var enrichedFields = []string{"description", "images", "seo"}

// Service fetches extra product content from the legacy content API
type Service struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	ttl        time.Duration
	log        *logger.Logger
}

// NewService creates an enrichment service. c is shared by every call.
func NewService(baseURL string, c cache.Cache, ttl time.Duration, timeout time.Duration, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		ttl:        ttl,
		log:        log,
	}
}

// EnrichProduct returns a copy of rec with description, images and seo filled
// from GET {base}/products/{handle} where rec has no value for them.
func (s *Service) EnrichProduct(ctx context.Context, rec common.Record) (common.Record, error) {
	handle := handleOf(rec)
	if handle == "" {
		return rec, fmt.Errorf("record %s has no handle", rec.OriginalID())
	}

	body, err := s.fetch(ctx, handle)
	if err != nil {
		return rec, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return rec, fmt.Errorf("failed to decode content for %s: %w", handle, err)
	}
	// accept both a bare product and {"data": product}
	if inner, ok := common.AsObject(doc["data"]); ok {
		doc = inner
	}

	out := rec.ShallowCopy()
	for _, field := range enrichedFields {
		if v, ok := doc[field]; ok && v != nil && isAbsent(out[field]) {
			out[field] = v
		}
	}
	return out, nil
}

func (s *Service) fetch(ctx context.Context, handle string) ([]byte, error) {
	key := "enrich:product:" + handle
	if data, ok := s.cache.Get(ctx, key); ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/products/"+url.PathEscape(handle), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content for %s: %w", handle, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read content for %s: %w", handle, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content service returned %d for %s", resp.StatusCode, handle)
	}

	s.cache.Put(ctx, key, data, s.ttl)
	return data, nil
}

// EnrichAll enriches every record concurrently, one request per record, and
// waits for all of them. A failed record is returned unchanged.
func (s *Service) EnrichAll(ctx context.Context, records []common.Record) []common.Record {
	out := make([]common.Record, len(records))

	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec common.Record) {
			defer wg.Done()

			enriched, err := s.EnrichProduct(ctx, rec)
			if err != nil {
				s.log.WithRecord("product", rec.OriginalID()).Warnf("Enrichment skipped: %v", err)
				out[i] = rec
				return
			}
			out[i] = enriched
		}(i, rec)
	}
	wg.Wait()

	return out
}

func handleOf(rec common.Record) string {
	for _, key := range []string{"handle", "slug"} {
		if s, ok := rec[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func isAbsent(v interface{}) bool {
	if common.IsEmpty(v) {
		return true
	}
	if list, ok := common.AsList(v); ok {
		return len(list) == 0
	}
	if obj, ok := common.AsObject(v); ok {
		return len(obj) == 0
	}
	return false
}
