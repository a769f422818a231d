//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"testing"
	"time"

	"payalias/internal/platform/testkit/pgtest"
	"payalias/internal/services/resolution/domain"
)

func TestLookupLogRoundTrip(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	s := NewPG().Bind(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	rows := []domain.LookupLog{
		{Alias: "pay.example.com", Chain: "all", ErrorMessage: domain.MsgNotFound, CreatedAt: now.Add(-time.Minute)},
		{
			Alias: "pay.example.com", Chain: "BTC", ResolvedAddress: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
			AliasType: "dns", Confidence: 0.82, ProofMetadata: map[string]any{"currency": "BTC"}, CreatedAt: now,
		},
	}
	for _, r := range rows {
		if err := s.Insert(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := s.Recent(ctx, "pay.example.com", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].AliasType != "dns" || got[0].ProofMetadata["currency"] != "BTC" {
		t.Fatalf("recent = %+v", got)
	}
	if got[1].ErrorMessage != domain.MsgNotFound || got[1].ResolvedAddress != "" {
		t.Fatalf("negative row = %+v", got[1])
	}
}
