package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

type httpFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns an ObjectFetcher backed by client. Timeouts come from
// the request context; client.Timeout should be left at zero so a slow but
// progressing body is governed by the caller's deadline alone.
func NewHTTPFetcher(client *http.Client) port.ObjectFetcher {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		}
	}
	return &httpFetcher{client: client}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (*port.FetchedObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Err: fmt.Errorf("building request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		drain(resp.Body)
		return nil, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		drain(resp.Body)
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, string(snippet)),
		}
	}

	return &port.FetchedObject{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
