// Package backend wraps the Source Impact REST API used by the dashboard.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// CallObserver receives one notification per backend call.
type CallObserver interface {
	ObserveBackendCall(op, outcome string, took time.Duration)
}

// FilePart is a single file forwarded as multipart/form-data.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Request describes one backend call.
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	Token  string
	Body   any
	File   *FilePart
}

// Candidate is one (method, path) pair tried by CallFirst. Body, when set,
// replaces the request body for this candidate only.
type Candidate struct {
	Method string
	Path   string
	Body   any
}

// Client issues calls against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	memo       RouteMemo
	observer   CallObserver
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for fallback probing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRouteMemo sets where successful fallback candidates are remembered.
func WithRouteMemo(memo RouteMemo) Option {
	return func(c *Client) {
		if memo != nil {
			c.memo = memo
		}
	}
}

// WithObserver registers a call observer, typically the metrics registry.
func WithObserver(observer CallObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient constructs a new client.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
		memo:       NewMemoryMemo(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs exactly one HTTP call and never returns an error: every
// failure is folded into the Result.
func (c *Client) Call(ctx context.Context, req Request) Result {
	start := time.Now()
	res := c.call(ctx, req)
	if c.observer != nil {
		outcome := "ok"
		if !res.Success {
			outcome = string(res.Kind)
		}
		c.observer.ObserveBackendCall(req.Op, outcome, time.Since(start))
	}
	return res
}

func (c *Client) call(ctx context.Context, req Request) Result {
	op := req.Op
	body, contentType, err := encodeBody(req)
	if err != nil {
		return failure(op, KindTransport, 0, "Could not prepare request")
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return failure(op, KindTransport, 0, "Could not prepare request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return failure(op, KindTransport, 0, "The server took too long to respond")
		}
		return failure(op, KindTransport, 0, "Unable to reach the server")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return failure(op, KindTransport, resp.StatusCode, "Connection interrupted while reading the response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := messageFrom(payload)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return failure(op, kindForStatus(resp.StatusCode), resp.StatusCode, msg)
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && !json.Valid(trimmed) {
		return failure(op, KindMalformed, resp.StatusCode, "Unexpected response from server")
	}
	if len(trimmed) > 0 {
		var envelope map[string]any
		if json.Unmarshal(trimmed, &envelope) == nil {
			if ok, present := envelope["success"].(bool); present && !ok {
				msg := messageFrom(trimmed)
				if msg == "" {
					msg = "Request was rejected"
				}
				return failure(op, KindStatus, resp.StatusCode, msg)
			}
		}
	}
	return Result{
		Op:      op,
		Success: true,
		Status:  resp.StatusCode,
		Data:    json.RawMessage(trimmed),
		Message: messageFrom(trimmed, "message"),
	}
}

// CallFirst tries candidates in order and stops at the first response that
// is not a 404. The index of a successful candidate is remembered per op
// and tried first next time.
func (c *Client) CallFirst(ctx context.Context, req Request, candidates []Candidate) Result {
	if len(candidates) == 0 {
		return failure(req.Op, KindTransport, 0, "No route configured")
	}
	remembered := -1
	if idx, ok := c.memo.Get(ctx, req.Op); ok && idx >= 0 && idx < len(candidates) {
		remembered = idx
	}
	order := make([]int, 0, len(candidates))
	if remembered >= 0 {
		order = append(order, remembered)
	}
	for i := range candidates {
		if i != remembered {
			order = append(order, i)
		}
	}

	var res Result
	for attempt, idx := range order {
		cand := candidates[idx]
		attemptReq := req
		attemptReq.Method = cand.Method
		attemptReq.Path = cand.Path
		if cand.Body != nil {
			attemptReq.Body = cand.Body
		}
		res = c.Call(ctx, attemptReq)
		c.logger.Debug("backend route attempt",
			slog.String("op", req.Op),
			slog.Int("attempt", attempt+1),
			slog.String("method", cand.Method),
			slog.String("path", cand.Path),
			slog.Int("status", res.Status))
		if res.Kind == KindNotFound {
			continue
		}
		if res.Success {
			if attempt > 0 {
				c.logger.Info("backend fallback route selected",
					slog.String("op", req.Op),
					slog.String("method", cand.Method),
					slog.String("path", cand.Path))
			}
			c.memo.Set(ctx, req.Op, idx)
		}
		return res
	}
	return res
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.File != nil {
		return encodeMultipart(req.File, req.Body)
	}
	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

func encodeMultipart(file *FilePart, fields any) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if values, ok := fields.(map[string]string); ok {
		for k, v := range values {
			if err := writer.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	field := file.Field
	if field == "" {
		field = "file"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(file.Filename)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return nil, "", fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}
