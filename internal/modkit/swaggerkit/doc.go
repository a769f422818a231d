package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sync"

	"payalias/internal/core/version"
)

// SpecMutator adjusts the document before it is served; modules use it to add their paths
type SpecMutator func(spec map[string]any)

var (
	mu       sync.RWMutex
	mutators []SpecMutator
)

// Register adds a mutator, typically from a module's MountRoutes
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// Operation registers a single JSON operation with a request and response schema
func Operation(method, path, summary string, request, response map[string]any) {
	Register(func(spec map[string]any) {
		paths := spec["paths"].(map[string]any)
		item, _ := paths[path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[path] = item
		}
		op := map[string]any{
			"summary": summary,
			"responses": map[string]any{
				"200": jsonContent("OK", envelope(response)),
			},
		}
		if request != nil {
			op["requestBody"] = map[string]any{
				"required": true,
				"content":  map[string]any{"application/json": map[string]any{"schema": request}},
			}
		}
		item[method] = op
	})
}

// Document builds the current document
func Document() map[string]any {
	bi := version.Info("payalias-api")
	spec := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": "payalias API", "version": bi.Version},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{"ErrorResponse": errorSchema()},
		},
	}
	mu.RLock()
	ms := append([]SpecMutator(nil), mutators...)
	mu.RUnlock()
	for _, m := range ms {
		m(spec)
	}
	addDefaultErrors(spec)
	return spec
}

func serveDocJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(Document())
}

func jsonContent(desc string, schema map[string]any) map[string]any {
	return map[string]any{
		"description": desc,
		"content":     map[string]any{"application/json": map[string]any{"schema": schema}},
	}
}

func envelope(data map[string]any) map[string]any {
	props := map[string]any{
		"status_code": map[string]any{"type": "integer"},
		"status":      map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
	}
	if data != nil {
		props["data"] = data
	}
	return map[string]any{"type": "object", "properties": props}
}

// errorSchema mirrors the runtime error envelope
func errorSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefaultErrors gives every operation a 400 and 500 pointing at ErrorResponse
func addDefaultErrors(spec map[string]any) {
	ref := map[string]any{"$ref": "#/components/schemas/ErrorResponse"}
	defaults := map[string]any{
		"400": jsonContent("Bad Request", ref),
		"500": jsonContent("Internal Server Error", ref),
	}
	for _, p := range spec["paths"].(map[string]any) {
		item, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, o := range item {
			op, ok := o.(map[string]any)
			if !ok {
				continue
			}
			resps, _ := op["responses"].(map[string]any)
			if resps == nil {
				resps = map[string]any{}
				op["responses"] = resps
			}
			for code, v := range defaults {
				if _, exists := resps[code]; !exists {
					resps[code] = v
				}
			}
		}
	}
}

// reset clears registered mutators between tests
func reset() {
	mu.Lock()
	mutators = nil
	mu.Unlock()
}
