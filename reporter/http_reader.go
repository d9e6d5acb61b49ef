// Reader is a testing facility to read the output of a http reporter.

package reporter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
	}
}

func (hr *HttpReader) base() string {
	return "http://" + hr.serverIP + ":" + hr.serverPort
}

func (hr *HttpReader) GetHealth() (string, error) {
	_, body, err := hr.get(ROUTE_HEALTH)
	return body, err
}

// GetTransactions queries by address when it is set, else by principal.
func (hr *HttpReader) GetTransactions(address, principal string) (int, string, error) {
	q := url.Values{}
	if address != "" {
		q.Set("address", address)
	}
	if principal != "" {
		q.Set("principal", principal)
	}
	return hr.get(ROUTE_TRANSACTIONS + "?" + q.Encode())
}

func (hr *HttpReader) Search(query string) (int, string, error) {
	return hr.get(ROUTE_SEARCH + "?q=" + url.QueryEscape(query))
}

func (hr *HttpReader) GetSources() (int, string, error) {
	return hr.get(ROUTE_SOURCES)
}

func (hr *HttpReader) PostInbound(req *InboundRequest) (int, string, error) {
	return hr.post(ROUTE_INBOUND, req)
}

func (hr *HttpReader) PostOutbound(req *OutboundRequest) (int, string, error) {
	return hr.post(ROUTE_OUTBOUND, req)
}

func (hr *HttpReader) get(route string) (int, string, error) {
	resp, err := http.Get(hr.base() + route)
	if err != nil {
		return 0, "", err
	}
	return readBody(resp)
}

func (hr *HttpReader) post(route string, payload any) (int, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}
	resp, err := http.Post(hr.base()+route, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, "", err
	}
	return readBody(resp)
}

func readBody(resp *http.Response) (int, string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}
