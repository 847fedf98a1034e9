// Package topic fetches a brief context block for any discussion subject so
// personas can form informed opinions without changing their personalities.
// The default topic uses a static built-in block (no network call); anything
// else falls back to the DuckDuckGo Instant Answer API, then degrades to a
// "draw on your general knowledge" stub.
package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTopic is the preset discussion subject.
const DefaultTopic = "PlayStation 5"

var defaultAliases = map[string]bool{
	"playstation 5": true,
	"ps5":           true,
	"playstation5":  true,
	"playstation":   true,
}

// IsDefault reports whether topic names the built-in default subject.
func IsDefault(topic string) bool {
	return defaultAliases[strings.ToLower(strings.TrimSpace(topic))]
}

// Provider fetches topic context blocks.
type Provider struct {
	client *http.Client
	// instantAnswerURL is swapped out in tests.
	instantAnswerURL string
}

// NewProvider creates a topic context provider.
func NewProvider() *Provider {
	return &Provider{
		client:           &http.Client{Timeout: 6 * time.Second},
		instantAnswerURL: "https://api.duckduckgo.com/",
	}
}

// Fetch returns a context block for the given topic. It never fails: lookup
// errors degrade to a generic block.
func (p *Provider) Fetch(ctx context.Context, topic string) string {
	if IsDefault(topic) {
		return defaultContext
	}

	if block := p.instantAnswer(ctx, topic); block != "" {
		return block
	}

	return fmt.Sprintf(
		"TOPIC: %s\n\n[No additional context found. Draw on your general knowledge about %s.]",
		topic, topic,
	)
}

// instantAnswer queries the DuckDuckGo Instant Answer API (no key,
// Wikipedia-style abstracts). Returns "" on any failure.
func (p *Provider) instantAnswer(ctx context.Context, topic string) string {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", p.instantAnswerURL+"?"+q.Encode(), nil)
	if err != nil {
		return ""
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var data struct {
		AbstractText string `json:"AbstractText"`
		Abstract     string `json:"Abstract"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return ""
	}

	abstract := data.AbstractText
	if abstract == "" {
		abstract = data.Abstract
	}
	if abstract == "" {
		return ""
	}
	return fmt.Sprintf("TOPIC: %s\n\n%s", topic, abstract)
}
