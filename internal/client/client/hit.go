package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/feedbackkit/internal/client/endpoints"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/netx"
)

const tracerName = "github.com/dmitrijs2005/feedbackkit/internal/client/client"

var emptyJSONObject = []byte("{}")

type callOptions struct {
	params      map[string]string
	query       url.Values
	body        any
	hasBody     bool
	config      RequestConfig
	cachePolicy CachePolicy
	timeout     time.Duration
}

type Option func(*callOptions)

// WithPathParams fills endpoint placeholders. tenantId and applicationId
// default to the server configuration.
func WithPathParams(params map[string]string) Option {
	return func(o *callOptions) {
		for k, v := range params {
			o.params[k] = v
		}
	}
}

func WithPathParam(name, value string) Option {
	return func(o *callOptions) { o.params[name] = value }
}

func WithQuery(name, value string) Option {
	return func(o *callOptions) { o.query.Set(name, value) }
}

// WithBody is JSON-encoded. It is ignored for GET and DELETE.
func WithBody(body any) Option {
	return func(o *callOptions) {
		o.body = body
		o.hasBody = true
	}
}

func WithRequestConfig(cfg RequestConfig) Option {
	return func(o *callOptions) { o.config = cfg }
}

func WithCachePolicy(p CachePolicy) Option {
	return func(o *callOptions) { o.cachePolicy = p }
}

func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) { o.timeout = d }
}

func (s *Server) callOptions(opts []Option) callOptions {
	o := callOptions{
		params: map[string]string{
			"tenantId":      s.cfg.TenantID,
			"applicationId": s.cfg.ApplicationID,
		},
		query:  url.Values{},
		config: DefaultRequestConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sender performs one attempt of a prepared request with the given token.
type sender func(ctx context.Context, token string) ([]byte, *http.Response, error)

// Hit calls a JSON endpoint and decodes the response into T.
func Hit[T any](ctx context.Context, s *Server, e endpoints.Endpoint, opts ...Option) Result[T] {
	o := s.callOptions(opts)

	ctx, span := otel.Tracer(tracerName).Start(ctx, e.Name)
	defer span.End()
	span.SetAttributes(attribute.String("feedbackkit.endpoint", e.SlugWithMethod()))

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	target, err := s.url(e, o)
	if err != nil {
		return fail[T](span, err, 0, 0)
	}

	var body []byte
	if o.hasBody || (e.Method != http.MethodGet && e.Method != http.MethodDelete) {
		body, err = encodeBody(e.Method, o)
		if err != nil {
			return fail[T](span, err, 0, 0)
		}
	}

	cacheKey := e.Method + " " + target
	cacheable := e.Method == http.MethodGet && o.cachePolicy != UseProtocolCachePolicy
	if cacheable && o.cachePolicy == ReturnCacheDataElseLoad {
		if cached, ok := s.cache.Get(cacheKey); ok {
			s.log.Debug(ctx, "serving cached response", "endpoint", e.Name)
			return decodeResult[T](span, cached.([]byte), 0, http.StatusOK)
		}
	}

	send := func(ctx context.Context, token string) ([]byte, *http.Response, error) {
		req, err := s.newRequest(ctx, e, target, token, body)
		if err != nil {
			return nil, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return s.transport.Perform(ctx, req)
	}

	data, status, attrs, err := s.perform(ctx, e, target, o.config, send)
	if err != nil {
		return fail[T](span, err, attrs, status)
	}

	if cacheable && status != http.StatusNoContent {
		s.cache.SetDefault(cacheKey, data)
	}
	return decodeResult[T](span, data, attrs, status)
}

// HitUpload sends fields as multipart/form-data. Uploads are never cached
// and never retried on 5xx.
func HitUpload[T any](ctx context.Context, s *Server, e endpoints.Endpoint, fields []netx.FormField, opts ...Option) Result[T] {
	o := s.callOptions(opts)

	ctx, span := otel.Tracer(tracerName).Start(ctx, e.Name)
	defer span.End()
	span.SetAttributes(attribute.String("feedbackkit.endpoint", e.SlugWithMethod()))

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	target, err := s.url(e, o)
	if err != nil {
		return fail[T](span, err, 0, 0)
	}

	body, contentType, err := netx.MultipartBody(fields)
	if err != nil {
		return fail[T](span, common.System(err), 0, 0)
	}

	send := func(ctx context.Context, token string) ([]byte, *http.Response, error) {
		req, err := s.newRequest(ctx, e, target, token, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return s.transport.PerformUpload(ctx, req, body)
	}

	cfg := o.config
	cfg.Retries = 0
	data, status, attrs, err := s.perform(ctx, e, target, cfg, send)
	if err != nil {
		return fail[T](span, err, attrs, status)
	}
	return decodeResult[T](span, data, attrs, status)
}

// perform runs the reauthenticate-once and retry-on-5xx policy around send.
// At most one reauthentication happens per call.
func (s *Server) perform(ctx context.Context, e endpoints.Endpoint, target string, cfg RequestConfig, send sender) ([]byte, int, Attributes, error) {
	var attrs Attributes

	token, err := s.auth.AccessToken(ctx)
	if err != nil {
		if !e.GuestAllowed || !isCredentialFailure(err) {
			return nil, 0, attrs, err
		}
		s.log.Debug(ctx, "no credential, sending as guest", "endpoint", e.Name, "error", err)
		token = ""
		cfg.Reauthenticate = false
	}

	for {
		data, resp, err := send(ctx, token)
		if err != nil {
			if resp == nil {
				return nil, 0, attrs, common.System(fmt.Errorf("%w: %s: %w", ErrUnavailable, e.SlugWithMethod(), err))
			}
			return nil, resp.StatusCode, attrs, common.System(err)
		}

		status := resp.StatusCode
		s.log.Debug(ctx, "received response", "endpoint", e.Name, "status", status)

		switch {
		case status == http.StatusNoContent:
			return emptyJSONObject, status, attrs, nil

		case status == http.StatusUnauthorized && cfg.Reauthenticate:
			s.log.Debug(ctx, "request required reauthentication", "endpoint", e.Name)
			cfg.Reauthenticate = false
			attrs |= RequiredReauthentication

			token, err = s.auth.RefreshedToken(ctx, token)
			if err != nil {
				return nil, status, attrs, err
			}

		case status == http.StatusUnauthorized:
			return nil, status, attrs, common.AuthenticationFailed(reauthenticationFailedMessage)

		case status >= 400 && status <= 499:
			return nil, status, attrs, networkError(e.Method, target, resp, data)

		case status >= 500 && status <= 599:
			if cfg.Retries > 0 {
				cfg.Retries--
				attrs |= RequiredRetry
				s.log.Warn(ctx, "retrying after server error", "endpoint", e.Name, "status", status)
				if err := s.sleep(ctx, cfg.RetryDelay); err != nil {
					return nil, status, attrs, common.System(err)
				}
				continue
			}
			if attrs.Has(RequiredRetry) {
				attrs |= ExceededRetryLimit
			}
			return nil, status, attrs, networkError(e.Method, target, resp, data)

		default:
			return data, status, attrs, nil
		}
	}
}

// isCredentialFailure reports errors meaning no user credential could be
// obtained, as opposed to storage or transport failures.
func isCredentialFailure(err error) bool {
	switch common.KindOf(err) {
	case common.KindAuthenticationFailed, common.KindUnauthenticated:
		return true
	}
	return false
}

// url joins the API root and the filled path template. Path segments are
// already escaped by Endpoint.Path.
func (s *Server) url(e endpoints.Endpoint, o callOptions) (string, error) {
	path, err := e.Path(o.params)
	if err != nil {
		return "", common.Generic("unable to build request path", err)
	}

	root := *s.root
	root.RawQuery = ""
	root.Fragment = ""

	target := root.String() + path
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}
	return target, nil
}

func (s *Server) newRequest(ctx context.Context, e endpoints.Endpoint, target, token string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, e.Method, target, r)
	if err != nil {
		return nil, common.Generic("unable to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	s.commonHeaders(req.Header)
	if e.Tracking {
		s.trackingHeaders(ctx, req.Header)
	}
	return req, nil
}

func encodeBody(method string, o callOptions) ([]byte, error) {
	if method == http.MethodGet || method == http.MethodDelete {
		return nil, nil
	}
	if !o.hasBody || o.body == nil {
		return emptyJSONObject, nil
	}
	data, err := json.Marshal(o.body)
	if err != nil {
		return nil, common.JSON(err)
	}
	return data, nil
}

func decodeResult[T any](span trace.Span, data []byte, attrs Attributes, status int) Result[T] {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fail[T](span, common.JSON(err), attrs, status)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	return Result[T]{Value: v, Attributes: attrs, StatusCode: status}
}

func fail[T any](span trace.Span, err error, attrs Attributes, status int) Result[T] {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result[T]{Err: err, Attributes: attrs, StatusCode: status}
}

func networkError(method, target string, resp *http.Response, body []byte) error {
	return &common.NetworkError{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
}
