// Package http provides the resolution transport
package http

import (
	stdhttp "net/http"
	"sync"

	"payalias/internal/core/address"
	"payalias/internal/core/normalize"
	"payalias/internal/modkit/httpkit"
	"payalias/internal/modkit/swaggerkit"
	"payalias/internal/platform/net/http/bind"
	"payalias/internal/services/resolution/domain"
)

var tagsOnce sync.Once

// RegisterTags installs the alias and chain validation tags
func RegisterTags() {
	tagsOnce.Do(func() {
		_ = bind.RegisterTag("alias", "{0} is not a valid alias", func(fl bind.FieldLevel) bool {
			_, err := normalize.Alias(fl.Field().String())
			return err == nil
		})
		_ = bind.RegisterTag("chain", "{0} is not a known chain", func(fl bind.FieldLevel) bool {
			_, ok := address.NormalizeChain(fl.Field().String())
			return ok
		})
	})
}

// Register mounts POST /resolve
func Register(r httpkit.Router, s domain.ResolverPort) {
	RegisterTags()
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.ResolveInput](r, "/resolve", h.resolve)

	swaggerkit.Operation("post", "/resolve", "Resolve an alias to payment addresses",
		map[string]any{
			"type":     "object",
			"required": []string{"alias"},
			"properties": map[string]any{
				"alias": map[string]any{"type": "string", "example": "vitalik.eth"},
				"chain": map[string]any{"type": "string", "example": "ethereum"},
			},
		},
		outcomeSchema(),
	)
}

type handlers struct{ svc domain.ResolverPort }

// resolution failures come back as 200 with outcome.error set
func (h *handlers) resolve(r *stdhttp.Request, in domain.ResolveInput) (any, error) {
	return h.svc.Resolve(r.Context(), domain.Query{Alias: in.Alias, Chain: in.Chain})
}

func outcomeSchema() map[string]any {
	candidate := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source_type": map[string]any{"type": "string", "example": "ens"},
			"currency":    map[string]any{"type": "string", "example": "ETH"},
			"address":     map[string]any{"type": "string"},
			"raw_data":    map[string]any{"type": "object"},
			"confidence":  map[string]any{"type": "number", "example": 0.95},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"alias":            map[string]any{"type": "string"},
			"chain":            map[string]any{"type": "string"},
			"resolved":         map[string]any{"type": "array", "items": candidate},
			"chosen":           candidate,
			"sources_conflict": map[string]any{"type": "boolean"},
			"cached":           map[string]any{"type": "boolean"},
			"error":            map[string]any{"type": "string"},
		},
	}
}
