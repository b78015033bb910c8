package api

import (
	"io"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
)

// MockResponseBody is a ReadCloser that simulates reading response data.
// A positive chunkSize caps each Read so tests can fragment a stream at
// arbitrary byte boundaries; failAfter cuts the connection mid-stream.
type MockResponseBody struct {
	data      []byte
	pos       int
	chunkSize int
	failAfter int // bytes delivered before Read fails; -1 disables
	failErr   error
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data, failAfter: -1}
}

// NewChunkedResponseBody delivers data at most chunkSize bytes per Read
func NewChunkedResponseBody(data []byte, chunkSize int) *MockResponseBody {
	return &MockResponseBody{data: data, chunkSize: chunkSize, failAfter: -1}
}

// NewFailingResponseBody delivers failAfter bytes and then returns err,
// simulating a connection dropped mid-stream
func NewFailingResponseBody(data []byte, failAfter int, err error) *MockResponseBody {
	return &MockResponseBody{data: data, failAfter: failAfter, failErr: err}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.failAfter >= 0 && m.pos >= m.failAfter {
		return 0, m.failErr
	}
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}

	limit := len(m.data)
	if m.failAfter >= 0 && m.failAfter < limit {
		limit = m.failAfter
	}
	chunk := m.data[m.pos:limit]
	if m.chunkSize > 0 && len(chunk) > m.chunkSize {
		chunk = chunk[:m.chunkSize]
	}

	n = copy(p, chunk)
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	return nil
}

// NewMockResponse builds a response for the mock client's queue
func NewMockResponse(body []byte, statusCode int) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: statusCode,
		Body:       NewMockResponseBody(body),
		Header:     make(fhttp.Header),
	}
}

// MockHttpClient is a mock implementation of tls_client.HttpClient for
// testing. Responses, when non-empty, is consumed one element per Do call;
// afterwards Response/Err serve every call. Each request and its body are
// recorded for assertions.
type MockHttpClient struct {
	Response  *fhttp.Response
	Err       error
	Responses []*fhttp.Response

	Requests      []*fhttp.Request
	RequestBodies [][]byte
}

// GetCookies implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetCookies(u *url.URL) []*fhttp.Cookie {
	return nil
}

// SetCookies implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetCookies(u *url.URL, cookies []*fhttp.Cookie) {}

// SetCookieJar implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetCookieJar(jar fhttp.CookieJar) {}

// GetCookieJar implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetCookieJar() fhttp.CookieJar {
	return nil
}

// SetProxy implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetProxy(proxyUrl string) error {
	return nil
}

// GetProxy implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetProxy() string {
	return ""
}

// SetFollowRedirect implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetFollowRedirect(followRedirect bool) {}

// GetFollowRedirect implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetFollowRedirect() bool {
	return false
}

// CloseIdleConnections implements the tls_client.HttpClient interface
func (m *MockHttpClient) CloseIdleConnections() {}

// Do implements the tls_client.HttpClient interface
func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.Requests = append(m.Requests, req)
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	m.RequestBodies = append(m.RequestBodies, body)

	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return m.Response, m.Err
}

// Get implements the tls_client.HttpClient interface
func (m *MockHttpClient) Get(url string) (*fhttp.Response, error) {
	return m.Response, m.Err
}

// Head implements the tls_client.HttpClient interface
func (m *MockHttpClient) Head(url string) (*fhttp.Response, error) {
	return m.Response, m.Err
}

// Post implements the tls_client.HttpClient interface
func (m *MockHttpClient) Post(url, contentType string, body io.Reader) (*fhttp.Response, error) {
	return m.Response, m.Err
}

// GetBandwidthTracker implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetBandwidthTracker() bandwidth.BandwidthTracker {
	return nil
}

// NewMockHttpClient creates a new MockHttpClient with a successful response
func NewMockHttpClient(body []byte, statusCode int) *MockHttpClient {
	return &MockHttpClient{
		Response: NewMockResponse(body, statusCode),
	}
}

// NewMockHttpClientWithResponses creates a MockHttpClient serving the given
// responses in order
func NewMockHttpClientWithResponses(responses ...*fhttp.Response) *MockHttpClient {
	return &MockHttpClient{
		Responses: responses,
	}
}

// NewMockHttpClientWithError creates a new MockHttpClient that returns an error
func NewMockHttpClientWithError(err error) *MockHttpClient {
	return &MockHttpClient{
		Response: nil,
		Err:      err,
	}
}
