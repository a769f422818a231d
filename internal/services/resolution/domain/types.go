// Package domain defines the resolution types and ports
package domain

import (
	"strings"
	"time"

	"payalias/internal/core/address"
)

// Outcome errors surfaced to callers in Outcome.Error
const (
	MsgUnresolvable = "no resolver can handle this alias format"
	MsgNotFound     = "no addresses found for this alias"
	MsgENSMissing   = "ENS resolution is not available: no Ethereum RPC endpoint configured"
)

// Query is the immutable input to one resolution
type Query struct {
	Alias string
	Chain string
}

// Candidate is one (currency, address) pair reported by a single plugin
type Candidate struct {
	SourceType string         `json:"source_type"`
	Currency   string         `json:"currency"`
	Address    string         `json:"address"`
	RawData    map[string]any `json:"raw_data,omitempty"`
	Confidence float64        `json:"confidence"`
}

// Outcome is the result of one resolution; Chosen is nil iff Resolved is empty
type Outcome struct {
	Alias           string      `json:"alias"`
	Chain           string      `json:"chain"`
	Resolved        []Candidate `json:"resolved"`
	Chosen          *Candidate  `json:"chosen"`
	SourcesConflict bool        `json:"sources_conflict"`
	Cached          bool        `json:"cached"`
	Error           string      `json:"error,omitempty"`
}

// Clone deep copies the outcome so cached values never alias caller slices
func (o Outcome) Clone() Outcome {
	out := o
	if o.Resolved != nil {
		out.Resolved = make([]Candidate, len(o.Resolved))
		copy(out.Resolved, o.Resolved)
	}
	if o.Chosen != nil {
		c := *o.Chosen
		out.Chosen = &c
	}
	return out
}

// ResolveInput is the body of POST /resolve
type ResolveInput struct {
	Alias string `json:"alias" validate:"required,max=253,alias"`
	Chain string `json:"chain" validate:"omitempty,chain"`
}

// LookupLog is one row of the lookup_logs table
type LookupLog struct {
	Alias           string
	Chain           string
	ResolvedAddress string
	AliasType       string
	Confidence      float64
	ProofMetadata   map[string]any
	ErrorMessage    string
	CreatedAt       time.Time
}

// CacheKey is lower(alias) + ":" + lower(chain) with chain defaulting to all
func CacheKey(alias, chain string) string {
	chain = strings.TrimSpace(chain)
	if chain == "" {
		chain = address.All
	}
	return strings.ToLower(strings.TrimSpace(alias)) + ":" + strings.ToLower(chain)
}
