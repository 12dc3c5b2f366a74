package fetcher

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// UserAgent identifies the client as a desktop browser so the page is not served a bot wall.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetchError is returned when the server answers with anything other than 200.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error %d fetching %s", e.StatusCode, e.URL)
}

type Fetcher struct {
	client *resty.Client
}

func NewFetcher() *Fetcher {
	client := resty.New()
	client.SetHeader("user-agent", UserAgent)
	return &Fetcher{
		client: client,
	}
}

// GetHtmlBytes returns the raw response body of a GET to url.
func (f *Fetcher) GetHtmlBytes(url string) ([]byte, error) {
	resp, err := f.client.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), nil
}
