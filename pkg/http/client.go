package http

import (
	"net/http"
)

const UserAgentHeader = "User-Agent"

// ProvideHTTPClient builds the client shared by every call to the tracking
// server. Default headers live on the transport so individual requests can
// still override them.
func ProvideHTTPClient() *http.Client {
	return &http.Client{
		Transport: &Transport{
			headers: map[string]string{
				UserAgentHeader: UserAgent(),
				"Content-Type":  "application/json",
			},
		},
	}
}
