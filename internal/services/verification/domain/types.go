// Package domain holds the verification types and ports
package domain

import (
	"time"

	"payalias/internal/core/trust"

	"github.com/google/uuid"
)

// Verification methods
const (
	MethodDNS   = "dns"
	MethodHTTPS = "https"
	MethodBoth  = "both"
)

// VerifyInput is the body of POST /verify
// AliasID is optional; without it the record is looked up by domain
type VerifyInput struct {
	AliasID            string            `json:"aliasId"            validate:"omitempty,uuid"`
	Domain             string            `json:"domain"             validate:"required,max=253,hostname_rfc1123"`
	VerificationMethod string            `json:"verificationMethod" validate:"required,oneof=dns https both"`
	ExpectedAddresses  map[string]string `json:"expectedAddresses"  validate:"required,min=1,max=32,dive,keys,chain,endkeys,required,max=256"` //nolint:lll
}

// ReportInput is the body of POST /trust/report; one of the two is required
type ReportInput struct {
	AliasID string `json:"aliasId" validate:"required_without=Domain,omitempty,uuid"`
	Domain  string `json:"domain"  validate:"required_without=AliasID,omitempty,max=253,hostname_rfc1123"`
}

// Result is the transient output of one verification pass
// Errors are hard failures, Warnings are proofs that could be stronger
type Result struct {
	Success       bool              `json:"success"`
	Domain        string            `json:"domain"`
	Method        string            `json:"verificationMethod"`
	DNSVerified   bool              `json:"dns_verified"`
	HTTPSVerified bool              `json:"https_verified"`
	DNSSECEnabled bool              `json:"dnssec_enabled"`
	TrustScore    int               `json:"trustScore"`
	Errors        []string          `json:"errors"`
	Warnings      []string          `json:"warnings"`
	Observed      map[string]string `json:"observed,omitempty"`
	Persisted     bool              `json:"persisted"`
	CheckedAt     time.Time         `json:"checkedAt"`
}

// Proofs projects the result onto the trust formula inputs
func (r Result) Proofs() trust.Proofs {
	return trust.Proofs{DNSVerified: r.DNSVerified, HTTPSVerified: r.HTTPSVerified, DNSSECEnabled: r.DNSSECEnabled}
}

// AliasRecord is the persisted alias row; only the verification columns are written here
type AliasRecord struct {
	ID                 uuid.UUID
	Alias              string
	Domain             string
	CurrentCurrency    string
	CurrentAddress     string
	VerificationMethod string
	DNSVerified        bool
	HTTPSVerified      bool
	DNSSECEnabled      bool
	TrustScore         int
	LastVerificationAt *time.Time
}

// Proofs returns the stored proof flags
func (a AliasRecord) Proofs() trust.Proofs {
	return trust.Proofs{DNSVerified: a.DNSVerified, HTTPSVerified: a.HTTPSVerified, DNSSECEnabled: a.DNSSECEnabled}
}

// Expected is the {currency: address} map a re-check compares against
func (a AliasRecord) Expected() map[string]string {
	if a.CurrentCurrency == "" || a.CurrentAddress == "" {
		return map[string]string{}
	}
	return map[string]string{a.CurrentCurrency: a.CurrentAddress}
}
