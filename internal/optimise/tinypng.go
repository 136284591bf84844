package optimise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ldubois/optimg/internal/logger"
)

// tinyPNGEndpoint is the TinyPNG shrink endpoint.
const tinyPNGEndpoint = "https://api.tinify.com/shrink"

// RemoteCompressor defines the interface for hosted image compression.
type RemoteCompressor interface {
	// Compress uploads image bytes to the hosted service and returns
	// the compressed bytes. The API key is passed per call; the
	// compressor holds no key state.
	Compress(ctx context.Context, data []byte, key string) ([]byte, error)
}

// tinyPNGCompressor implements the RemoteCompressor interface against
// the TinyPNG API.
type tinyPNGCompressor struct {
	client   *http.Client
	endpoint string
}

// NewTinyPNGCompressor creates a new RemoteCompressor instance.
func NewTinyPNGCompressor() RemoteCompressor {
	return &tinyPNGCompressor{
		client:   &http.Client{Timeout: 2 * time.Minute},
		endpoint: tinyPNGEndpoint,
	}
}

// newTinyPNGCompressorWithEndpoint allows tests to point the client at
// a local server.
func newTinyPNGCompressorWithEndpoint(endpoint string, client *http.Client) RemoteCompressor {
	return &tinyPNGCompressor{client: client, endpoint: endpoint}
}

// tinyPNGError is the error body returned by the TinyPNG API.
type tinyPNGError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Compress uploads image bytes and downloads the compressed result.
// The shrink call answers 201 with a Location header for the
// compressed object, which is fetched with the same credentials.
func (c *tinyPNGCompressor) Compress(ctx context.Context, data []byte, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrCompressionService)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionService, err)
	}
	req.SetBasicAuth("api", key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s", ErrCompressionService, apiErrorMessage(resp))
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("%w: shrink response missing Location header", ErrCompressionService)
	}

	logger.Debug("Shrink accepted, downloading result", "location", location)
	return c.download(ctx, location, key)
}

// download fetches the compressed object the shrink call pointed at.
func (c *tinyPNGCompressor) download(ctx context.Context, location, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionService, err)
	}
	req.SetBasicAuth("api", key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrCompressionService, apiErrorMessage(resp))
	}

	compressed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionService, err)
	}
	return compressed, nil
}

// apiErrorMessage extracts the API error description from a non-2xx
// response, falling back to the HTTP status.
func apiErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var apiErr tinyPNGError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Sprintf("%s: %s (%s)", apiErr.Error, apiErr.Message, resp.Status)
		}
	}
	return resp.Status
}
