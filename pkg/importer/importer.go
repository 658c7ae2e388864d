package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// DefaultEndpoints returns the endpoint path of each entity on a target.
// Customers and orders are not stored on the content target.
func DefaultEndpoints(target mapping.Target) map[mapping.EntityType]string {
	if target == mapping.TargetContent {
		return map[mapping.EntityType]string{
			mapping.EntityProduct:  "/api/products",
			mapping.EntityCategory: "/api/categories",
			mapping.EntityPage:     "/api/pages",
		}
	}
	return map[mapping.EntityType]string{
		mapping.EntityProduct:  "/admin/products",
		mapping.EntityCategory: "/admin/product-categories",
		mapping.EntityCustomer: "/admin/customers",
		mapping.EntityOrder:    "/admin/orders",
	}
}

// Options configures a destination client
type Options struct {
	Target  mapping.Target
	BaseURL string
	// Token is sent as a bearer token when not empty
	Token     string
	Endpoints map[string]string
	Timeout   time.Duration
}

// Result is the outcome of importing one record
type Result struct {
	Success    bool   `json:"success"`
	DryRun     bool   `json:"dryRun,omitempty"`
	Error      string `json:"error,omitempty"`
	Entity     string `json:"entity"`
	StatusCode int    `json:"statusCode,omitempty"`
	RemoteID   string `json:"remoteId,omitempty"`
	OriginalID string `json:"originalId,omitempty"`
}

// Client posts records to one destination REST API
type Client struct {
	target     mapping.Target
	baseURL    string
	token      string
	endpoints  map[mapping.EntityType]string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a destination client. Configured endpoints override the
// defaults of the target.
func NewClient(opts Options, log *logger.Logger) (*Client, error) {
	endpoints := DefaultEndpoints(opts.Target)
	for name, path := range opts.Endpoints {
		entity, err := mapping.ParseEntityType(name)
		if err != nil {
			return nil, fmt.Errorf("invalid %s endpoint: %w", opts.Target, err)
		}
		endpoints[entity] = path
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		target:     opts.Target,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		token:      opts.Token,
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// TokenFromEnv reads the API token from the named environment variable
func TokenFromEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Supports reports whether the target has an endpoint for entity
func (c *Client) Supports(entity mapping.EntityType) bool {
	_, ok := c.endpoints[entity]
	return ok
}

// ImportBatch posts records one at a time, in order. A failed record is
// recorded and the batch continues. On a dry run no request is made and every
// record is reported as a successful dry run.
func (c *Client) ImportBatch(ctx context.Context, records []common.Record, entity mapping.EntityType, dryRun bool) []Result {
	results := make([]Result, 0, len(records))
	log := c.log.WithTarget(string(c.target)).WithField("entity", entity)

	for i, rec := range records {
		id := originalID(rec)

		if dryRun {
			results = append(results, Result{Success: true, DryRun: true, Entity: string(entity), OriginalID: id})
			continue
		}

		if err := ctx.Err(); err != nil {
			for _, rest := range records[i:] {
				results = append(results, Result{Entity: string(entity), OriginalID: originalID(rest), Error: err.Error()})
			}
			log.Warnf("Import cancelled after %d of %d records", i, len(records))
			break
		}

		res := c.post(ctx, rec, entity)
		res.OriginalID = id
		if res.Success {
			log.WithField("record_id", id).Debugf("Imported as %s", res.RemoteID)
		} else {
			log.WithField("record_id", id).Errorf("Import failed: %s", res.Error)
		}
		results = append(results, res)
	}

	return results
}

func (c *Client) post(ctx context.Context, rec common.Record, entity mapping.EntityType) Result {
	res := Result{Entity: string(entity)}

	endpoint, ok := c.endpoints[entity]
	if !ok {
		res.Error = fmt.Sprintf("no %s endpoint for entity %s", c.target, entity)
		return res
	}

	var body interface{} = rec
	if c.target == mapping.TargetContent {
		body = map[string]interface{}{"data": rec}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		res.Error = fmt.Sprintf("failed to encode record: %v", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		res.Error = fmt.Sprintf("failed to create request: %v", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Error = fmt.Sprintf("request failed: %v", err)
		return res
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	res.StatusCode = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		res.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		return res
	}

	res.Success = true
	res.RemoteID = remoteID(data)
	return res
}

// remoteID finds the id of the created resource in the common response shapes:
// {"id"}, {"data": {"id"}} and {"<entity>": {"id"}}
func remoteID(body []byte) string {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	if id, ok := doc["id"]; ok && id != nil {
		return fmt.Sprint(id)
	}
	for _, v := range doc {
		if obj, ok := common.AsObject(v); ok {
			if id, ok := obj["id"]; ok && id != nil {
				return fmt.Sprint(id)
			}
		}
	}
	return ""
}

func originalID(rec common.Record) string {
	if v, ok := rec.Get("metadata.original_id"); ok && v != nil {
		return fmt.Sprint(v)
	}
	return rec.OriginalID()
}

// Summary counts the results of a batch
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	DryRun    int `json:"dryRun"`
}

// Summarize counts successes, failures and dry runs
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.DryRun:
			s.DryRun++
			s.Succeeded++
		case r.Success:
			s.Succeeded++
		default:
			s.Failed++
		}
	}
	return s
}

// Report is the content of the import report file
type Report struct {
	RunID       string                         `json:"runId"`
	GeneratedAt time.Time                      `json:"generatedAt"`
	DryRun      bool                           `json:"dryRun"`
	Summary     map[string]Summary             `json:"summary"`
	Results     map[string]map[string][]Result `json:"results"`
}

// WriteImportReport writes the results per target and entity as JSON
func WriteImportReport(path, runID string, dryRun bool, results map[mapping.Target]map[mapping.EntityType][]Result) error {
	report := Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		DryRun:      dryRun,
		Summary:     make(map[string]Summary),
		Results:     make(map[string]map[string][]Result),
	}
	for target, byEntity := range results {
		var all []Result
		report.Results[string(target)] = make(map[string][]Result)
		for entity, rs := range byEntity {
			report.Results[string(target)][string(entity)] = rs
			all = append(all, rs...)
		}
		report.Summary[string(target)] = Summarize(all)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal import report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write import report %s: %w", path, err)
	}
	return nil
}
