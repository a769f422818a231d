package main

import (
	"bytes"
	"encoding/json"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	out, err := run(t, "score", "--dns", "--https", "--compact")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var got struct {
		TrustScore int    `json:"trustScore"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.TrustScore != 90 {
		t.Fatalf("trustScore = %d, want 90", got.TrustScore)
	}
	if got.Status == "" {
		t.Fatalf("status missing: %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--compact")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte(`"service":"payalias"`)) {
		t.Fatalf("unexpected version output: %s", out)
	}
}

func TestVerifyNeedsAddresses(t *testing.T) {
	if _, err := run(t, "verify", "example.com"); err == nil {
		t.Fatal("verify without --address should fail")
	}
}

func TestResolveNeedsAlias(t *testing.T) {
	if _, err := run(t, "resolve"); err == nil {
		t.Fatal("resolve without an alias should fail")
	}
}
