package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxDrain caps how much of a response body is read before closing.
const maxDrain = 1 << 20

// HTTPTransport issues the configured method and records the status code.
// Connections resolve through Names so requests share the name cache while
// keeping the host name for TLS and the Host header.
type HTTPTransport struct {
	Names  HostResolver
	client *http.Client
}

// NewHTTPTransport creates a request transport.
func NewHTTPTransport(names HostResolver) *HTTPTransport {
	t := &HTTPTransport{Names: names}
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	rt := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(address)
			if err != nil {
				return nil, err
			}
			addr, err := resolveOne(ctx, t.Names, host)
			if err != nil {
				return nil, err
			}
			return dialer.DialContext(ctx, network, net.JoinHostPort(addr.String(), port))
		},
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	t.client = &http.Client{Transport: rt}
	return t
}

// Run implements Transport.
func (t *HTTPTransport) Run(ctx context.Context, a Attempt) Outcome {
	u, err := requestURL(a.Target)
	if err != nil {
		return Outcome{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, a.Protocol.Method, u, nil)
	if err != nil {
		return Outcome{Err: err}
	}
	req.Header.Set("User-Agent", "lookout")

	resp, err := t.client.Do(req)
	if err != nil {
		return Outcome{Err: err}
	}
	defer resp.Body.Close()

	// The response only counts as complete once the body has arrived.
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain)); err != nil && ctx.Err() != nil {
		return Outcome{Err: ctx.Err()}
	}
	return Outcome{StatusCode: resp.StatusCode}
}

// CloseIdle drops pooled connections.
func (t *HTTPTransport) CloseIdle() {
	t.client.CloseIdleConnections()
}

// requestURL builds scheme://host[:port]path for a target.
func requestURL(t Target) (string, error) {
	scheme := strings.ToLower(t.Scheme)
	if scheme == "" {
		scheme = "http"
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", t.Scheme)
	}

	host := t.Host
	if t.Port > 0 {
		host = net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	path := t.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	raw := scheme + "://" + host + path
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid request URL %q", raw)
	}
	return u.String(), nil
}
