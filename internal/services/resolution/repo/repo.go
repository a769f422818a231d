// Package repo persists the resolution lookup log
package repo

import (
	"context"
	"encoding/json"

	"payalias/internal/modkit/repokit"
	perr "payalias/internal/platform/errors"
	pstrings "payalias/internal/platform/strings"
	"payalias/internal/services/resolution/domain"

	"github.com/google/uuid"
)

// Storage is the lookup log table
type Storage interface {
	Insert(ctx context.Context, l domain.LookupLog) error
	Recent(ctx context.Context, alias string, limit int) ([]domain.LookupLog, error)
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns the Postgres binder
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// newID is swapped in tests
var newID = uuid.New

// Insert implements domain.LookupLogPort
func (s *pg) Insert(ctx context.Context, l domain.LookupLog) error {
	var meta []byte
	if l.ProofMetadata != nil {
		b, err := json.Marshal(l.ProofMetadata)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "encode proof metadata")
		}
		meta = b
	}
	const sql = `
		INSERT INTO lookup_logs
			(id, alias, chain, resolved_address, alias_type, confidence, proof_metadata, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)`
	_, err := s.q.Exec(ctx, sql,
		newID(), l.Alias, l.Chain, pstrings.NullIfBlank(l.ResolvedAddress), pstrings.NullIfBlank(l.AliasType),
		nullableConfidence(l), nullableJSON(meta), pstrings.NullIfBlank(l.ErrorMessage), l.CreatedAt,
	)
	if err != nil {
		return perr.FromPostgres(err, "insert lookup log")
	}
	return nil
}

// Recent lists the newest rows for alias
func (s *pg) Recent(ctx context.Context, alias string, limit int) ([]domain.LookupLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const sql = `
		SELECT alias, chain, COALESCE(resolved_address, ''), COALESCE(alias_type, ''),
			COALESCE(confidence, 0), proof_metadata, COALESCE(error_message, ''), created_at
		FROM lookup_logs
		WHERE alias = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.q.Query(ctx, sql, alias, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list lookup logs")
	}
	defer rows.Close()

	var out []domain.LookupLog
	for rows.Next() {
		var l domain.LookupLog
		var meta []byte
		if err := rows.Scan(&l.Alias, &l.Chain, &l.ResolvedAddress, &l.AliasType,
			&l.Confidence, &meta, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, perr.FromPostgres(err, "scan lookup log")
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &l.ProofMetadata)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullableConfidence(l domain.LookupLog) any {
	if l.ResolvedAddress == "" {
		return nil
	}
	return l.Confidence
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
