// Package apiclient is the HTTP client for the suretynode API. All
// state changing calls are signed with the identity passed per call, so
// a single client can act on behalf of many participants (the oracle
// operator drives dozens of identities through one client).
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/crypto/ethereum"
)

// HTTPclient is the suretynode API HTTP client.
type HTTPclient struct {
	c    *http.Client
	addr *url.URL
}

// APIError is the decoded error body of a non-2xx API reply. Kind
// carries the machine readable state error kind, when the failure
// originated in the state machine.
type APIError struct {
	Message    string `json:"error"`
	Code       int    `json:"code"`
	Kind       string `json:"kind"`
	HTTPstatus int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (code %d, http %d)", e.Message, e.Code, e.HTTPstatus)
}

// ErrorKind returns the state error kind of err if it is an APIError,
// or empty otherwise.
func ErrorKind(err error) string {
	apiErr, ok := err.(*APIError)
	if !ok {
		return ""
	}
	return apiErr.Kind
}

// NewHTTPclient creates a new API client and checks the remote node is
// reachable by fetching its status.
func NewHTTPclient(addr *url.URL) (*HTTPclient, error) {
	tr := &http.Transport{
		IdleConnTimeout:    10 * time.Second,
		DisableCompression: false,
	}
	c := &HTTPclient{
		c:    &http.Client{Transport: tr, Timeout: time.Second * 8},
		addr: addr,
	}
	if _, err := c.Status(); err != nil {
		return nil, fmt.Errorf("API server is not reachable: %w", err)
	}
	return c, nil
}

// Status fetches the node status.
func (c *HTTPclient) Status() (*api.NodeStatus, error) {
	status := &api.NodeStatus{}
	if err := c.get(status, "status"); err != nil {
		return nil, err
	}
	return status, nil
}

// request performs a raw request against the endpoint built from
// urlPath. A nil body means GET, otherwise the body is sent as a POST.
func (c *HTTPclient) request(body []byte, urlPath ...string) ([]byte, int, error) {
	u, err := url.Parse(c.addr.String())
	if err != nil {
		return nil, 0, err
	}
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	var resp *http.Response
	if body == nil {
		resp, err = c.c.Get(u.String())
	} else {
		resp, err = c.c.Post(u.String(), "application/json", bytes.NewReader(body))
	}
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

// get fetches a read only endpoint and decodes the reply into out.
func (c *HTTPclient) get(out any, urlPath ...string) error {
	data, status, err := c.request(nil, urlPath...)
	if err != nil {
		return err
	}
	return decodeReply(data, status, out)
}

// post signs reqBody with signer, wraps it in the request envelope and
// decodes the reply into out (unless nil).
func (c *HTTPclient) post(signer *ethereum.SignKeys, reqBody, out any, urlPath ...string) error {
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	signature, err := signer.Sign(raw)
	if err != nil {
		return fmt.Errorf("cannot sign request: %w", err)
	}
	env, err := json.Marshal(api.RequestMessage{Request: raw, Signature: signature})
	if err != nil {
		return err
	}
	data, status, err := c.request(env, urlPath...)
	if err != nil {
		return err
	}
	return decodeReply(data, status, out)
}

func decodeReply(data []byte, status int, out any) error {
	if status < 200 || status >= 300 {
		apiErr := &APIError{HTTPstatus: status}
		if err := json.Unmarshal(data, apiErr); err != nil {
			return fmt.Errorf("API returned status %d: %s", status, data)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
