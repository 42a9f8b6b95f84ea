// Package networks maps network names to adapter constructors, so
// orchestration can hold a collection of affiliate.Network values without
// ever naming a concrete adapter type.
package networks

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/networks/leadalliance"
	"github.com/dvloznov/affiliate-tracker/internal/networks/webgains"
)

var constructors = map[string]func(c *http.Client) (affiliate.Network, error){
	"leadalliance": func(c *http.Client) (affiliate.Network, error) {
		if c == nil {
			return leadalliance.New()
		}
		return leadalliance.New(leadalliance.WithHTTPClient(c))
	},
	"webgains": func(c *http.Client) (affiliate.Network, error) {
		if c == nil {
			return webgains.New()
		}
		return webgains.New(webgains.WithHTTPClient(c))
	},
}

// New builds the adapter registered under name with its default HTTP client.
func New(name string) (affiliate.Network, error) {
	return NewWithClient(name, nil)
}

// NewWithClient builds the adapter registered under name using the given
// HTTP client. A nil client keeps the adapter's default.
func NewWithClient(name string, c *http.Client) (affiliate.Network, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("networks.New: unknown network %q (known: %v)", name, Names())
	}
	return ctor(c)
}

// Names lists the registered networks in stable order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
