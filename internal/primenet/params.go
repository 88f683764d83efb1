package primenet

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the production v5 server endpoint.
	DefaultBaseURL = "https://v5.mersenne.org/v5server/"

	// TransactionAPIVersion is sent in the "v" parameter of every request.
	TransactionAPIVersion = "0.95"
)

type pair struct {
	key   string
	value string
}

// Params is an insertion-ordered parameter set for one v5 request. Order
// matters: the request signature is computed over the canonical encoding,
// which preserves insertion order.
type Params struct {
	pairs []pair
}

// NewParams returns the base parameter set for a transaction on behalf of
// the machine identified by guid.
func NewParams(t Transaction, guid string) *Params {
	p := &Params{}
	p.Set("px", "GIMPS")
	p.Set("v", TransactionAPIVersion)
	p.Set("t", t.Code())
	p.Set("g", guid)
	return p
}

// Set appends key=value, replacing the value in place if key is already
// present.
func (p *Params) Set(key string, value interface{}) *Params {
	s := fmt.Sprint(value)
	for i := range p.pairs {
		if p.pairs[i].key == key {
			p.pairs[i].value = s
			return p
		}
	}
	p.pairs = append(p.pairs, pair{key, s})
	return p
}

// Get returns the value for key, or "" if unset.
func (p *Params) Get(key string) string {
	for _, kv := range p.pairs {
		if kv.key == key {
			return kv.value
		}
	}
	return ""
}

// Encode renders the canonical query string: key=value pairs joined by "&"
// in insertion order, values percent-escaped with "+" for space.
func (p *Params) Encode() string {
	var b strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}
