package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/metrics"
)

// DefaultTimeout bounds every request unless Options.Timeout overrides it.
const DefaultTimeout = 20 * time.Second

// RequestIDHeader carries a per-request id for correlating logs.
const RequestIDHeader = "X-Request-ID"

// File is a binary part of a multipart body.
type File struct {
	Field       string
	Name        string
	ContentType string
	Reader      io.Reader
}

// Request describes one backend call. Query is used for reads. A request
// with Form or Files is sent as multipart/form-data, otherwise JSON is sent
// as the body when set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   map[string]string
	Files  []File

	// ExpectStatus, when set, is the only status treated as success.
	ExpectStatus int
}

// Response is a successful reply.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Validator is implemented by decoded types that can reject themselves.
type Validator interface {
	Validate() error
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client performs backend requests. It never retries.
type Client struct {
	http    *resty.Client
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// New creates a fetcher client.
func New(opts Options, m *metrics.Metrics, logger *logrus.Logger) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "insync-bot"
	}

	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(logger)

	return &Client{http: rc, metrics: m, logger: logger}
}

// Do executes req and returns the raw response, or a *FetchError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	requestID := uuid.NewString()

	r := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)

	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}

	switch {
	case len(req.Files) > 0 || req.Form != nil:
		r.SetMultipartFormData(req.Form)
		for _, f := range req.Files {
			r.SetMultipartField(f.Field, f.Name, f.ContentType, f.Reader)
		}
	case req.JSON != nil:
		r.SetHeader("Content-Type", "application/json").SetBody(req.JSON)
	}

	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       req.Path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := r.Execute(method, req.Path)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObserveBackend(method, req.Path, string(KindNetwork), elapsed)
		log.WithError(err).Warn("Backend unreachable")
		return nil, &FetchError{Kind: KindNetwork, Method: method, Path: req.Path, Err: err}
	}

	status := resp.StatusCode()
	body := resp.Body()
	log = log.WithFields(logrus.Fields{"status": status, "elapsed": elapsed})

	if !statusOK(status, req.ExpectStatus) {
		c.metrics.ObserveBackend(method, req.Path, string(KindHTTPStatus), elapsed)
		fe := &FetchError{
			Kind:    KindHTTPStatus,
			Status:  status,
			Message: serverMessage(body),
			Method:  method,
			Path:    req.Path,
		}
		log.WithField("message", fe.Message).Warn("Backend returned unexpected status")
		return nil, fe
	}

	c.metrics.ObserveBackend(method, req.Path, "ok", elapsed)
	log.Debug("Backend request completed")

	return &Response{Status: status, Body: body, Header: resp.Header()}, nil
}

// DoJSON executes req and decodes the body into out. Values implementing
// Validator, and slices of them, are validated after decoding.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := Decode(req, resp, out); err != nil {
		c.logger.WithFields(logrus.Fields{
			"method": strings.ToUpper(req.Method),
			"path":   req.Path,
		}).WithError(err).Warn("Backend response rejected")
		return err
	}
	return nil
}

// Decode decodes a response to req into out and validates it. Failures are
// returned as decode errors.
func Decode(req Request, resp *Response, out any) error {
	fail := func(err error) error {
		return &FetchError{
			Kind:    KindDecode,
			Status:  resp.Status,
			Message: serverMessage(resp.Body),
			Method:  strings.ToUpper(req.Method),
			Path:    req.Path,
			Err:     err,
		}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fail(err)
	}
	if err := validate(out); err != nil {
		return fail(err)
	}
	return nil
}

func statusOK(status, expect int) bool {
	if expect != 0 {
		return status == expect
	}
	return status >= 200 && status < 300
}

// validate runs Validate on out, or on every element when out points to a slice.
func validate(out any) error {
	if v, ok := out.(Validator); ok {
		return v.Validate()
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if v, ok := rv.Index(i).Interface().(Validator); ok {
				if err := v.Validate(); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
		}
		return nil
	}
	if v, ok := rv.Interface().(Validator); ok {
		return v.Validate()
	}
	return nil
}

// serverMessage extracts a human-readable message from an error body: the
// message or error field of a JSON object, or a short plain-text body.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	var syntaxErr *json.SyntaxError
	if err := json.Unmarshal([]byte(trimmed), new(any)); err != nil && errors.As(err, &syntaxErr) {
		if len(trimmed) <= 200 && !strings.HasPrefix(trimmed, "<") {
			return trimmed
		}
	}
	return ""
}
