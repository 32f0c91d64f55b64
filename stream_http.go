package mdstream

import (
	"context"
	"fmt"
	"net/http"

	"pkt.systems/mdstream/internal/logging"
)

// HTTPParseRequest configures HTTPParse.
type HTTPParseRequest struct {
	URL     string
	Client  *http.Client
	Sink    Sink
	Options []Option
}

// HTTPParse fetches Markdown over HTTP(S) and parses the body as it streams
// in. Without a WithLogger option it logs through the logger carried by ctx.
func HTTPParse(ctx context.Context, req HTTPParseRequest) error {
	if req.URL == "" {
		return fmt.Errorf("stream http: URL is required")
	}
	if req.Sink == nil {
		return fmt.Errorf("stream http: %w", ErrNilSink)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := logging.FromContext(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("stream http: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return fmt.Errorf("stream http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	httpReq.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")
	logger.Debug("fetching markdown", "url", req.URL)
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream http: status %s", resp.Status)
	}
	opts := make([]Option, 0, len(req.Options)+1)
	opts = append(opts, WithLogger(logger))
	opts = append(opts, req.Options...)
	return Parse(ParseRequest{
		Reader:  resp.Body,
		Sink:    req.Sink,
		Options: opts,
	})
}
