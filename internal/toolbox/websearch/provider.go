// Package websearch is the runtime's canonical search tool: a
// multi-provider semantic web search client that picks the first
// credentialed provider in a fixed priority order and makes a single
// request, never retrying against a different provider on failure.
package websearch

import (
	"fmt"
	"net/url"
	"strings"
)

// Provider identifies one of the three supported search backends, tried in
// this fixed order: Exa, then Brave, then Linkup.
type Provider string

const (
	ProviderExa    Provider = "exa"
	ProviderBrave  Provider = "brave"
	ProviderLinkup Provider = "linkup"
)

type providerSpec struct {
	directURL string
	queryParam string
	toolName  string
}

var providerSpecs = map[Provider]providerSpec{
	ProviderExa:    {directURL: "https://exa.run.tools", queryParam: "exaApiKey", toolName: "web_search_exa"},
	ProviderBrave:  {directURL: "https://brave.run.tools", queryParam: "braveApiKey", toolName: "brave_web_search"},
	ProviderLinkup: {directURL: "https://linkup-mcp-server--linkupplatform.run.tools", queryParam: "apiKey", toolName: "linkup-search"},
}

// Credentials holds the direct-mode API keys for each provider. A provider
// is considered configured when its key is non-empty and is not an unfilled
// placeholder value (e.g. "your_exa_api_key").
type Credentials struct {
	ExaAPIKey    string
	BraveAPIKey  string
	LinkupAPIKey string
}

func credentialOK(v string) bool {
	return v != "" && !strings.HasPrefix(v, "your_")
}

// ActiveProvider returns the first provider with usable credentials, in
// priority order Exa → Brave → Linkup, or "" if none are configured.
func (c Credentials) ActiveProvider() Provider {
	switch {
	case credentialOK(c.ExaAPIKey):
		return ProviderExa
	case credentialOK(c.BraveAPIKey):
		return ProviderBrave
	case credentialOK(c.LinkupAPIKey):
		return ProviderLinkup
	default:
		return ""
	}
}

func (c Credentials) keyFor(p Provider) string {
	switch p {
	case ProviderExa:
		return c.ExaAPIKey
	case ProviderBrave:
		return c.BraveAPIKey
	case ProviderLinkup:
		return c.LinkupAPIKey
	default:
		return ""
	}
}

// BuildURL returns the direct-mode MCP endpoint URL for the given provider,
// with its API key attached as a query parameter.
func BuildURL(p Provider, creds Credentials) (string, error) {
	spec, ok := providerSpecs[p]
	if !ok {
		return "", fmt.Errorf("websearch: unknown provider %q", p)
	}
	key := creds.keyFor(p)
	if key == "" {
		return spec.directURL, nil
	}
	return fmt.Sprintf("%s?%s", spec.directURL, url.Values{spec.queryParam: {key}}.Encode()), nil
}

func toolNameFor(p Provider) string {
	return providerSpecs[p].toolName
}

// buildArguments maps a query + result count to the provider-specific
// tools/call argument shape.
func buildArguments(p Provider, query string, maxResults int) map[string]any {
	switch p {
	case ProviderExa:
		return map[string]any{"query": query, "numResults": maxResults}
	case ProviderBrave:
		return map[string]any{"query": query, "count": maxResults}
	case ProviderLinkup:
		return map[string]any{"query": query, "outputType": "sourcedAnswer", "depth": "standard"}
	default:
		return map[string]any{"query": query}
	}
}
