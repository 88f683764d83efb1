package primenet

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// DefaultClientTimeout is the default timeout for server requests.
const DefaultClientTimeout = 60 * time.Second

// Client issues signed transactions to a v5 server. It holds no local
// state beyond the endpoint and salt source; a request never mutates
// anything on this side.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	rng *rand.Rand
}

// NewClient returns a client for the given endpoint, or the production
// endpoint if baseURL is empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: DefaultClientTimeout},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do signs params with a fresh random salt on behalf of guid and performs
// the request. A transport or HTTP-status failure returns an error wrapping
// ErrNoResponse; a decoded non-zero server code returns a *ServerError
// alongside the decoded response.
func (c *Client) Do(guid string, params *Params) (Response, error) {
	signWithSalt(guid, uint16(c.rng.Intn(1<<16)), params)

	resp, err := c.HTTPClient.Get(c.BaseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNoResponse, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP status %d", ErrNoResponse, resp.StatusCode)
	}

	r := DecodeResponse(string(body))
	if err := r.Err(); err != nil {
		return r, err
	}
	if detail := r.ErrorDetail(); detail != "" && detail != "SUCCESS" {
		log.Printf("PrimeNet success with additional info: %s", detail)
	}
	return r, nil
}
