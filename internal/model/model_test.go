// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestScopeString(t *testing.T) {
	if got := All().String(); got != "all" {
		t.Fatalf("All() = %q", got)
	}
	if got := InGroup(7).String(); got != "group(7)" {
		t.Fatalf("InGroup(7) = %q", got)
	}
	if got := Single(3).String(); got != "single(3)" {
		t.Fatalf("Single(3) = %q", got)
	}
}

func TestCredentialExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (Credential{}).Expired(now) {
		t.Fatalf("nil expiry must never expire")
	}
	if !(Credential{ExpiresAt: &past}).Expired(now) {
		t.Fatalf("past expiry must report expired")
	}
	if (Credential{ExpiresAt: &future}).Expired(now) {
		t.Fatalf("future expiry must not report expired")
	}
}

func TestUserStringOmitsKeyMaterial(t *testing.T) {
	u := User{Username: "alice", Salt: []byte("topsecret-salt"), KeyCheck: []byte("topsecret-check")}
	if got := u.String(); got != "alice" || strings.Contains(got, "topsecret") {
		t.Fatalf("User.String leaked material: %q", got)
	}
}

func TestBackupDataJSONTags(t *testing.T) {
	b := BackupData{SchemaVersion: 1}
	out, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(out), `"schema_version":1`) {
		t.Fatalf("schema version tag missing: %s", out)
	}
}
