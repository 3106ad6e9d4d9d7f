// Package link builds proxy references that query a single statistics key
// on a cluster.
package link

import (
	"fmt"
	"net/url"

	"github.com/roach88/statkeys/internal/statkey"
)

// Endpoints a statistics key can be queried against.
const (
	EndpointCurrent = "current"
	EndpointHistory = "history"
)

// Endpoints lists the supported endpoints in display order.
var Endpoints = []string{EndpointCurrent, EndpointHistory}

// ProxyPath is the path of the proxy that forwards queries to the cluster.
const ProxyPath = "/papi"

// DefaultAPIVersion is the platform API version used when none is set.
const DefaultAPIVersion = 1

// Builder produces links. Host is the cluster the links target; it stays
// nil until the user supplies one, and no links are produced before that.
// Endpoints limits Links to a subset; empty means all of them.
type Builder struct {
	APIVersion int
	Host       *string
	Endpoints  []string
}

// NewBuilder returns a Builder for the given host. An empty host yields a
// Builder that produces no links.
func NewBuilder(apiVersion int, host string) Builder {
	b := Builder{APIVersion: apiVersion}
	if host != "" {
		b.Host = &host
	}
	return b
}

// Enabled reports whether a cluster host is known.
func (b Builder) Enabled() bool {
	return b.Host != nil && *b.Host != ""
}

// StatisticsPath returns the platform API path for an endpoint.
func (b Builder) StatisticsPath(endpoint string) string {
	version := b.APIVersion
	if version <= 0 {
		version = DefaultAPIVersion
	}
	return fmt.Sprintf("/platform/%d/statistics/%s", version, endpoint)
}

// Link returns the proxy reference for key on endpoint. Placeholders in key
// are replaced by the first instance. ok is false when no host is set.
func (b Builder) Link(key, endpoint string) (ref string, ok bool, err error) {
	if !b.Enabled() {
		return "", false, nil
	}
	if !validEndpoint(endpoint) {
		return "", false, fmt.Errorf("unknown statistics endpoint %q", endpoint)
	}

	concrete, err := statkey.Denormalize(key)
	if err != nil {
		return "", false, err
	}

	// Parameter order matters to the proxy, so the query is assembled by
	// hand rather than with url.Values, which sorts.
	ref = ProxyPath + "?path=" + url.QueryEscape(b.StatisticsPath(endpoint)) +
		"&key=" + url.QueryEscape(concrete)
	return ref, true, nil
}

// Links returns the reference for every selected endpoint, keyed by
// endpoint.
func (b Builder) Links(key string) (map[string]string, error) {
	if !b.Enabled() {
		return nil, nil
	}
	endpoints := b.Endpoints
	if len(endpoints) == 0 {
		endpoints = Endpoints
	}
	out := make(map[string]string, len(endpoints))
	for _, ep := range endpoints {
		ref, _, err := b.Link(key, ep)
		if err != nil {
			return nil, err
		}
		out[ep] = ref
	}
	return out, nil
}

func validEndpoint(endpoint string) bool {
	for _, ep := range Endpoints {
		if ep == endpoint {
			return true
		}
	}
	return false
}
