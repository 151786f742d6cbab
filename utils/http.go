package utils

import (
	"net/http"
	"time"
)

const (
	UserAgent = "Herald/1.0 <github.com/tmichel/herald>"
)

type UARoundtripper struct {
	RT http.RoundTripper
}

func (uart *UARoundtripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)
	if uart.RT != nil {
		return uart.RT.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   10 * time.Second,
		Transport: &UARoundtripper{},
	}
}
