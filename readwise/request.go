package readwise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http/httpguts"
)

// maxErrorBody caps how much of a failed response ends up in a StatusError
const maxErrorBody = 4 << 10

// requestBody is what resource methods hand to the signer. Creates fill
// Highlights, updates fill Body with a single element
type requestBody struct {
	Highlights []Fields `json:"highlights"`
	Body       []Fields `json:"body,omitempty"`
}

// signedRequest sends an authorized request to <base>/api/v2<endpoint> and
// returns the response if its status is 2xx. The caller owns resp.Body
func (c *Client) signedRequest(ctx context.Context, method, endpoint string, body *requestBody) (*http.Response, error) {
	url := c.baseURL + apiPrefix + endpoint

	authorization := "Token " + c.token
	if !httpguts.ValidHeaderFieldValue(authorization) {
		return nil, &HeaderError{Header: "Authorization"}
	}

	payload, err := encodeBody(method, body)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"method":     method,
		"endpoint":   endpoint,
	})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("readwise request failed")
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("readwise request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(data)),
		}
	}

	return resp, nil
}

// encodeBody serializes the payload for method. PATCH carries only the first
// element of body.Body; GET and DELETE carry nothing
func encodeBody(method string, body *requestBody) ([]byte, error) {
	switch method {
	case http.MethodGet, http.MethodDelete:
		return nil, nil
	case http.MethodPost:
		if body == nil {
			return nil, ErrMissingBody
		}
		return marshal(body)
	case http.MethodPatch:
		if body == nil || len(body.Body) == 0 {
			return nil, ErrMissingBody
		}
		fields := body.Body[0]
		if fields == nil {
			fields = Fields{}
		}
		return marshal(fields)
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

// decode reads a JSON response into v and closes the body
func decode(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{URL: resp.Request.URL.String(), Err: err}
	}
	return nil
}

// discard drains and closes a response whose body is not needed
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
