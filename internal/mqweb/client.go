package mqweb

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/obsidianstack/wmqprobe/internal/mq"
)

// DefaultRequestTimeout bounds every HTTP exchange with the endpoint.
const DefaultRequestTimeout = 10 * time.Second

// csrfHeader must be present on every mqweb POST; its value is not checked.
const csrfHeader = "ibm-mq-rest-csrf-token"

// Dialer opens sessions against the mqweb administrative REST endpoint that
// fronts a queue manager. It implements mq.Dialer.
type Dialer struct {
	// RequestTimeout bounds each HTTP exchange. Zero means
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// HTTPClient replaces the client built from the target's TLS and
	// credential settings. Used by tests.
	HTTPClient *http.Client
}

// Dial checks that the endpoint hosts target.QueueManager and returns a
// handle bound to it. Rejected credentials match mq.ErrAuthRejected and an
// unknown queue manager matches mq.ErrUnknownQueueManager.
func (d *Dialer) Dial(ctx context.Context, t mq.Target) (mq.Handle, error) {
	client := d.HTTPClient
	if client == nil {
		timeout := d.RequestTimeout
		if timeout <= 0 {
			timeout = DefaultRequestTimeout
		}
		var err error
		client, err = buildHTTPClient(t, timeout)
		if err != nil {
			return nil, fmt.Errorf("mqweb: build http client: %w", err)
		}
	}

	scheme := "http"
	if t.TLS.Enabled {
		scheme = "https"
	}
	c := &conn{
		client: client,
		base:   (&url.URL{Scheme: scheme, Host: t.Address()}).String(),
		qmgr:   t.QueueManager,
	}

	var resp qmgrResponse
	if err := c.do(ctx, http.MethodGet, "/ibmmq/rest/v1/admin/qmgr/"+url.PathEscape(t.QueueManager), nil, &resp); err != nil {
		client.CloseIdleConnections()
		return nil, err
	}
	for _, q := range resp.QueueManagers {
		if q.Name == t.QueueManager && q.State != "" && q.State != "running" {
			client.CloseIdleConnections()
			return nil, fmt.Errorf("mqweb: queue manager %s is %s", q.Name, q.State)
		}
	}

	slog.Debug("mqweb: dialed", "endpoint", c.base, "qmgr", t.QueueManager, "channel", t.Channel)
	return c, nil
}

// conn is an mq.Handle bound to one queue manager.
type conn struct {
	client *http.Client
	base   string
	qmgr   string
}

func (c *conn) NewExecutor() (mq.Executor, error) {
	return &executor{conn: c}, nil
}

// Close releases pooled connections. HTTP sessions hold no server-side state.
func (c *conn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// do sends body (JSON-encoded when non-nil) to path and decodes a 200 reply
// into out.
func (c *conn) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mqweb: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("mqweb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(csrfHeader, "wmqprobe")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mqweb: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("mqweb: %s %s: %w (%s)", method, path, mq.ErrAuthRejected, errorMessage(resp.Body, resp.Status))
	case http.StatusNotFound:
		return fmt.Errorf("mqweb: %s %s: %w %s (%s)", method, path, mq.ErrUnknownQueueManager, c.qmgr, errorMessage(resp.Body, resp.Status))
	default:
		return fmt.Errorf("mqweb: %s %s: unexpected status %s", method, path, errorMessage(resp.Body, resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mqweb: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the first mqweb error message from body, falling
// back to the HTTP status text.
func errorMessage(body io.Reader, status string) string {
	var e errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&e); err != nil || len(e.Errors) == 0 {
		return status
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, m := range e.Errors {
		msgs = append(msgs, strings.TrimSpace(m.Message))
	}
	return strings.Join(msgs, "; ")
}

// authRoundTripper adds basic authentication to every outgoing request.
type authRoundTripper struct {
	base     http.RoundTripper
	user     string
	password string
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.user, t.password)
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the target's TLS and
// credential settings. Credentials are attached only when both user and
// password are set; otherwise the client connects anonymously (or with its
// client certificate).
func buildHTTPClient(t mq.Target, timeout time.Duration) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: t.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if t.TLS.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(t.TLS.CertFile, t.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	if t.TLS.CAFile != "" {
		caPEM, err := os.ReadFile(t.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, errors.New("no valid certs found in ca file " + t.TLS.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsCfg,
	}
	if user, password, ok := t.Credentials(); ok {
		transport = &authRoundTripper{base: transport, user: user, password: password}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
