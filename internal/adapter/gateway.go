package adapter

import (
	"book-catalog/internal/core/model"
	"book-catalog/internal/metrics"
	"book-catalog/pkg/http_client"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"
)

const booksPath = "/books"

// CatalogClient talks to the remote catalog service. It translates between
// the wire format and the core model and never retries; retry policy belongs
// to the caller.
type CatalogClient struct {
	BaseURL string
	Client  *http.Client
	// Limiter throttles outbound requests when set.
	Limiter *rate.Limiter
	Metrics *metrics.Recorder
	log     *slog.Logger
}

func NewCatalogClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *CatalogClient {
	if httpClient == nil {
		httpClient = http_client.CreateHTTPClient(0, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  httpClient,
		log:     logger.With("component", "catalog_client"),
	}
}

// NewRateLimiter allows rps requests per second with a burst of one second's
// worth. Zero or negative rps means no limit and returns nil.
func NewRateLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// ListRecords fetches one page. Any failure to get a 2xx answer is a
// transport error; a body that does not have the list shape is a decode
// error.
func (c *CatalogClient) ListRecords(ctx context.Context, q model.QueryParams) (model.ListResult, error) {
	q = q.Normalize()
	values := url.Values{}
	for _, p := range []struct {
		name  string
		value any
	}{
		{"page", q.Page},
		{"pageSize", q.PageSize},
		{"title", q.TitleFilter},
		{"sortBy", q.SortField},
		{"DIR", string(q.SortDirection)},
	} {
		if err := addQueryParam(values, p.name, p.value); err != nil {
			return model.ListResult{}, model.TransportError(0, "encode query", err)
		}
	}

	resp, err := c.send(ctx, "list", http.MethodGet, c.BaseURL+booksPath+"?"+values.Encode(), nil)
	if err != nil {
		return model.ListResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.ListResult{}, model.TransportError(resp.StatusCode,
			fmt.Sprintf("list books: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return model.ListResult{}, model.DecodeError("list books: malformed body", err)
	}
	if lr.Pagination == nil || lr.Data == nil {
		return model.ListResult{}, model.DecodeError("list books: missing pagination or data", nil)
	}
	return lr.toModel(), nil
}

// UpdateRecord replaces every field of r except the id, which addresses it.
func (c *CatalogClient) UpdateRecord(ctx context.Context, r model.Record) error {
	id, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, r.ID)
	if err != nil {
		return model.TransportError(0, "encode id", err)
	}
	return c.write(ctx, "update", http.MethodPut, c.BaseURL+booksPath+"/"+id, r.Input())
}

func (c *CatalogClient) CreateRecord(ctx context.Context, in model.RecordInput) error {
	return c.write(ctx, "create", http.MethodPost, c.BaseURL+booksPath, in)
}

func (c *CatalogClient) write(ctx context.Context, op, method, u string, body model.RecordInput) error {
	payload, err := json.Marshal(recordInputToDTO(body))
	if err != nil {
		return model.TransportError(0, "encode body", err)
	}
	resp, err := c.send(ctx, op, method, u, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	apiErr := readAPIError(resp.Body)
	msg := apiErr.Error.Message
	if msg == "" {
		msg = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return model.NotFoundError(msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ValidationError(resp.StatusCode, msg, apiErr.Error.Details)
	default:
		return model.TransportError(resp.StatusCode, fmt.Sprintf("%s book: %s", op, msg), nil)
	}
}

func (c *CatalogClient) send(ctx context.Context, op, method, u string, body []byte) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, model.TransportError(0, "rate limit wait", err)
		}
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, model.TransportError(0, "build request", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(http_client.RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Metrics.GatewayRequest(op, "error")
		c.log.Warn("catalog request failed", "op", op, "request_id", reqID, "error", err)
		return nil, model.TransportError(0, op+" request failed", err)
	}
	c.Metrics.GatewayRequest(op, strconv.Itoa(resp.StatusCode))
	c.log.Debug("catalog request", "op", op, "request_id", reqID, "status", resp.StatusCode)
	return resp, nil
}

// addQueryParam styles v the way an OpenAPI form/explode query parameter is
// serialized and adds it to values.
func addQueryParam(values url.Values, name string, v any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, v)
	if err != nil {
		return err
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return err
	}
	for k, vs := range parsed {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return nil
}

func readAPIError(r io.Reader) apiError {
	var e apiError
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	_ = json.Unmarshal(b, &e)
	if e.Error.Message == "" {
		e.Error.Message = strings.TrimSpace(string(b))
	}
	return e
}
