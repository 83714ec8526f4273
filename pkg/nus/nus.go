// Package nus is a small client for Nintendo's title content servers
// (the Network Update Server, "NUS" / "CCS"), used to download the TMD,
// ticket, and content of a published title by ID.
package nus

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/halsey-tools/wiititle/pkg/wiititle"
)

const (
	retailBaseURL = "http://nus.cdn.shop.wii.com/ccs/download"
	devBaseURL    = "http://ccs.cdn.shop.wii.com/ccs/download"
)

// Client downloads title metadata, tickets, and content from a CDN
// base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client pointed at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewRetailClient returns a Client pointed at the retail CDN.
func NewRetailClient() *Client {
	return NewClient(retailBaseURL)
}

// NewDevClient returns a Client pointed at the development CDN.
func NewDevClient() *Client {
	return NewClient(devBaseURL)
}

func titleHex(titleID uint64) string {
	return fmt.Sprintf("%016x", titleID)
}

func (c *Client) get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("nus: create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nus: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &wiititle.DownloadFailedError{Status: resp.StatusCode, URL: url}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nus: read response body: %w", err)
	}
	return body, nil
}

// FetchTMD downloads a title's TMD. If version is non-nil, the
// version-specific TMD is requested instead of the latest.
func (c *Client) FetchTMD(titleID uint64, version *uint16) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/tmd", c.baseURL, titleHex(titleID))
	if version != nil {
		url = fmt.Sprintf("%s.%d", url, *version)
	}
	return c.get(url)
}

// FetchCetk downloads a title's signed ticket ("cetk").
func (c *Client) FetchCetk(titleID uint64) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/cetk", c.baseURL, titleHex(titleID))
	return c.get(url)
}

// FetchContent downloads one encrypted content by content ID.
func (c *Client) FetchContent(titleID uint64, contentID uint32) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%08x", c.baseURL, titleHex(titleID), contentID)
	return c.get(url)
}
