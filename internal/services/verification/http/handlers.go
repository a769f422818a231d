// Package http provides the verification and trust report transport
package http

import (
	stdhttp "net/http"
	"sync"

	"payalias/internal/core/address"
	"payalias/internal/modkit/httpkit"
	"payalias/internal/modkit/swaggerkit"
	"payalias/internal/platform/net/http/bind"
	"payalias/internal/services/verification/domain"
)

var tagsOnce sync.Once

func registerTags() {
	tagsOnce.Do(func() {
		_ = bind.RegisterTag("chain", "{0} is not a known chain", func(fl bind.FieldLevel) bool {
			_, ok := address.NormalizeChain(fl.Field().String())
			return ok
		})
	})
}

// Register mounts POST /verify and POST /trust/report
func Register(r httpkit.Router, s domain.ServicePort) {
	registerTags()
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.VerifyInput](r, "/verify", h.verify)
	httpkit.PostJSON[domain.ReportInput](r, "/trust/report", h.report)

	swaggerkit.Operation("post", "/verify", "Verify domain ownership of payment addresses",
		map[string]any{
			"type":     "object",
			"required": []string{"domain", "verificationMethod", "expectedAddresses"},
			"properties": map[string]any{
				"aliasId":            map[string]any{"type": "string", "format": "uuid"},
				"domain":             map[string]any{"type": "string", "example": "pay.example.com"},
				"verificationMethod": map[string]any{"type": "string", "enum": []string{"dns", "https", "both"}},
				"expectedAddresses": map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "string"},
					"example":              map[string]string{"btc": "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"},
				},
			},
		},
		resultSchema(),
	)
	swaggerkit.Operation("post", "/trust/report", "Trust score report for a stored alias",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"aliasId": map[string]any{"type": "string", "format": "uuid"},
				"domain":  map[string]any{"type": "string"},
			},
		},
		reportSchema(),
	)
}

type handlers struct{ svc domain.ServicePort }

// failed checks are a 200 with errors populated; only bad input and storage failures are non 2xx
func (h *handlers) verify(r *stdhttp.Request, in domain.VerifyInput) (any, error) {
	return h.svc.Verify(r.Context(), in)
}

func (h *handlers) report(r *stdhttp.Request, in domain.ReportInput) (any, error) {
	return h.svc.TrustReport(r.Context(), in)
}

func resultSchema() map[string]any {
	strs := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"success":            map[string]any{"type": "boolean"},
			"domain":             map[string]any{"type": "string"},
			"verificationMethod": map[string]any{"type": "string"},
			"dns_verified":       map[string]any{"type": "boolean"},
			"https_verified":     map[string]any{"type": "boolean"},
			"dnssec_enabled":     map[string]any{"type": "boolean"},
			"trustScore":         map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"errors":             strs,
			"warnings":           strs,
			"observed":           map[string]any{"type": "object"},
			"persisted":          map[string]any{"type": "boolean"},
			"checkedAt":          map[string]any{"type": "string", "format": "date-time"},
		},
	}
}

func reportSchema() map[string]any {
	flag := map[string]any{"type": "boolean"}
	num := map[string]any{"type": "integer"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"alias":              map[string]any{"type": "string"},
			"trustScore":         num,
			"verificationMethod": map[string]any{"type": "string"},
			"proofs": map[string]any{"type": "object", "properties": map[string]any{
				"dnsVerified": flag, "httpsVerified": flag, "dnssecEnabled": flag,
			}},
			"breakdown": map[string]any{"type": "object", "properties": map[string]any{
				"baseScore": num, "dnsBonus": num, "dnssecBonus": num, "httpsBonus": num, "multiLayerBonus": num,
			}},
			"status":          map[string]any{"type": "string", "enum": []string{"excellent", "good", "fair", "poor"}},
			"recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}
