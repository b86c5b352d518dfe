package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Message is one turn of dialogue context sent to the inference service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the result of a buffered inference call. Usage is passed
// through from the upstream payload verbatim; its keys depend on the model
// server and are not interpreted here.
type Completion struct {
	Text  string
	Usage map[string]any
}

// Chunk is one fragment of a streaming completion. When the stream ends
// abnormally, the final chunk carries Err (classified via this package's
// typed errors) and no content.
type Chunk struct {
	Content string
	Err     error
}

// Config holds the connection settings for the inference service.
type Config struct {
	// BaseURL is the root of the inference service, e.g. http://localhost:8001.
	BaseURL string

	// APIKey, when non-empty, is sent as the X-API-Key header.
	APIKey string

	// Timeout bounds a buffered completion call.
	Timeout time.Duration

	// StreamTimeout bounds a streaming completion end to end, connection
	// setup through last byte.
	StreamTimeout time.Duration
}

// Client talks to the inference service. Buffered completions go through a
// resty client; streaming uses a raw http.Client so chunks can be relayed as
// they arrive instead of being collected into a single body.
type Client struct {
	rest          *resty.Client
	stream        *http.Client
	baseURL       string
	apiKey        string
	streamTimeout time.Duration
}

// headerAPIKey is the authentication header expected by the inference service.
const headerAPIKey = "X-API-Key"

// New builds a Client from cfg. Zero timeouts disable the respective
// deadline, which is only sensible in tests.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")

	rest := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		rest.SetHeader(headerAPIKey, cfg.APIKey)
	}

	return &Client{
		rest:          rest,
		stream:        &http.Client{},
		baseURL:       base,
		apiKey:        cfg.APIKey,
		streamTimeout: cfg.StreamTimeout,
	}
}

// completionRequest is the wire format of both inference endpoints.
type completionRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// completionPayload is the wire format of a buffered completion response.
type completionPayload struct {
	Response string         `json:"response"`
	Usage    map[string]any `json:"usage"`
}

// Complete performs a buffered inference call with the full dialogue history
// and returns the assistant text plus upstream usage accounting.
//
// Errors are always one of the package's typed errors: ErrUpstreamTimeout,
// ErrUpstreamUnavailable (wrapped, with the cause attached), or a
// *ProtocolError carrying the upstream status code.
func (c *Client) Complete(ctx context.Context, history []Message, maxTokens int, temperature float64) (*Completion, error) {
	var out completionPayload

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Messages:    history,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		}).
		SetResult(&out).
		Post("/inference/chat")
	if err != nil {
		err = classify(err)
		upstreamReqs.WithLabelValues("buffered", outcomeOf(err)).Inc()
		return nil, err
	}
	if resp.IsError() {
		perr := &ProtocolError{StatusCode: resp.StatusCode()}
		upstreamReqs.WithLabelValues("buffered", outcomeOf(perr)).Inc()
		return nil, perr
	}

	upstreamReqs.WithLabelValues("buffered", "ok").Inc()
	return &Completion{Text: out.Response, Usage: out.Usage}, nil
}

// StreamComplete opens a streaming inference call and returns a channel of
// chunks in arrival order. The channel is closed when the stream ends, for
// any reason.
//
// A failure before the first byte (connection, deadline, non-200 status) is
// returned synchronously and no channel is created. A failure mid-stream is
// delivered in-band as a final Chunk with Err set.
//
// The returned channel must be drained, or ctx cancelled, to release the
// underlying connection. Cancelling ctx stops the relay goroutine promptly.
func (c *Client) StreamComplete(ctx context.Context, history []Message, maxTokens int, temperature float64) (<-chan Chunk, error) {
	body, err := json.Marshal(completionRequest{
		Messages:    history,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	cancel := context.CancelFunc(func() {})
	if c.streamTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.streamTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/inference/chat/stream", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		err = classify(err)
		upstreamReqs.WithLabelValues("stream", outcomeOf(err)).Inc()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		perr := &ProtocolError{StatusCode: resp.StatusCode}
		upstreamReqs.WithLabelValues("stream", outcomeOf(perr)).Inc()
		return nil, perr
	}

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		defer cancel()
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		buf := make([]byte, 4096)
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				upstreamChunks.Inc()
				select {
				case ch <- Chunk{Content: string(buf[:n])}:
				case <-ctx.Done():
					upstreamReqs.WithLabelValues("stream", "canceled").Inc()
					return
				}
			}
			if err != nil {
				if err == io.EOF {
					upstreamReqs.WithLabelValues("stream", "ok").Inc()
					return
				}
				cerr := classify(err)
				upstreamReqs.WithLabelValues("stream", outcomeOf(cerr)).Inc()
				select {
				case ch <- Chunk{Err: cerr}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()
	return ch, nil
}
