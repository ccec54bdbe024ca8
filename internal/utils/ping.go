package utils

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// PingService opens and closes a TCP connection to the host behind serviceURL
// to verify it is reachable. No request is sent.
func PingService(serviceURL string, timeout time.Duration) error {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", serviceURL, err)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	addr := net.JoinHostPort(u.Hostname(), port)

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", addr, err)
	}
	return conn.Close()
}

// PingWeatherAPI checks if the upstream weather API is reachable.
func PingWeatherAPI(baseURL string) error {
	return PingService(baseURL, 1500*time.Millisecond)
}
