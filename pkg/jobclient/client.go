// Package jobclient talks to the clustering server: it lists datasets, starts
// and cancels jobs, and polls job progress.
package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

const (
	tracerName = "dendrotime/jobclient"

	// defaultRequestTimeout bounds a single request.
	defaultRequestTimeout = 10 * time.Second

	// maxErrorBody limits how much of an error response is kept.
	maxErrorBody = 512

	stopBody = "stop"
)

// Client errors.
var (
	ErrInvalidBaseURL = errors.New("invalid backend url")
	ErrStatus         = errors.New("unexpected response status")
)

// StatusError is returned for responses with status 300 or above.
type StatusError struct {
	Method string
	Path   string
	Body   string
	Code   int
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %s: %d %s", e.Method, e.Path, ErrStatus, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}

	return msg
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Dataset is a dataset offered by the server.
type Dataset struct {
	Name string `json:"name" yaml:"name"`
	ID   int64  `json:"id"   yaml:"id"`
}

type datasetsResponse struct {
	Datasets []Dataset `json:"datasets"`
}

type startRequest struct {
	Dataset Dataset `json:"dataset"`
	Params  Params  `json:"params"`
}

type startResponse struct {
	ID int64 `json:"id"`
}

// Client is an HTTP client for the job API.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: defaultRequestTimeout},
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Datasets lists the datasets available on the server.
func (c *Client) Datasets(ctx context.Context) ([]Dataset, error) {
	var out datasetsResponse

	_, err := c.doJSON(ctx, http.MethodGet, "/api/datasets", nil, &out)
	if err != nil {
		return nil, err
	}

	return out.Datasets, nil
}

// StartJob starts a clustering job and returns its id.
func (c *Client) StartJob(ctx context.Context, dataset Dataset, params Params) (int64, error) {
	err := params.Validate()
	if err != nil {
		return 0, err
	}

	var out startResponse

	_, err = c.doJSON(ctx, http.MethodPost, "/api/jobs", startRequest{Dataset: dataset, Params: params}, &out)
	if err != nil {
		return 0, err
	}

	return out.ID, nil
}

// Progress fetches the latest snapshot of a job. It returns nil without error
// when the server answers with a 2xx status other than 200.
func (c *Client) Progress(ctx context.Context, jobID int64) (*progress.Snapshot, error) {
	var snap progress.Snapshot

	status, err := c.doJSON(ctx, http.MethodGet, jobPath(jobID)+"/progress", nil, &snap)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, nil //nolint:nilnil // no snapshot available yet
	}

	return &snap, nil
}

// Cancel aborts a running job and returns the server's message.
func (c *Client) Cancel(ctx context.Context, jobID int64) (string, error) {
	resp, err := c.do(ctx, http.MethodDelete, jobPath(jobID), "application/json", nil)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(resp.data)), nil
}

// Stop releases the server resources of a finished job.
func (c *Client) Stop(ctx context.Context, jobID int64) error {
	_, err := c.do(ctx, http.MethodPost, jobPath(jobID), "application/json", strings.NewReader(stopBody))

	return err
}

func jobPath(jobID int64) string {
	return "/api/jobs/" + strconv.FormatInt(jobID, 10)
}

type response struct {
	data   []byte
	status int
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}

		body = bytes.NewReader(payload)
	}

	resp, err := c.do(ctx, method, path, "application/json", body)
	if err != nil {
		return 0, err
	}

	if resp.status != http.StatusOK || out == nil {
		return resp.status, nil
	}

	err = json.Unmarshal(resp.data, out)
	if err != nil {
		return resp.status, fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return resp.status, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (response, error) {
	ctx, span := c.tracer.Start(ctx, "jobclient "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return response{}, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	req.Header.Set("Content-Type", contentType)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data[:min(len(data), maxErrorBody)])),
		}

		span.SetStatus(codes.Error, statusErr.Error())
		c.logger.WarnContext(ctx, "job api request failed",
			"method", method, "path", path, "status", resp.StatusCode)

		return response{}, statusErr
	}

	return response{data: data, status: resp.StatusCode}, nil
}
