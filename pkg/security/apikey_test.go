package security_test

import (
	"strings"
	"testing"

	"github.com/mercaline/marketsplit-backend/pkg/config"
	"github.com/mercaline/marketsplit-backend/pkg/security"
)

func testConfig() config.APIKeyConfig {
	return config.APIKeyConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := security.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	if !strings.HasPrefix(key, security.APIKeyPrefix) {
		t.Fatalf("expected %q prefix, got %q", security.APIKeyPrefix, key)
	}

	other, err := security.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	if key == other {
		t.Fatal("expected distinct keys from successive calls")
	}
}

func TestHashAndVerifyAPIKey(t *testing.T) {
	cfg := testConfig()

	key, err := security.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}

	hash, err := security.HashAPIKey(key, cfg)
	if err != nil {
		t.Fatalf("HashAPIKey returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyAPIKey(key, hash)
	if err != nil {
		t.Fatalf("VerifyAPIKey returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyAPIKey failed for the correct key")
	}

	ok, err = security.VerifyAPIKey("msk_bogus", hash)
	if err != nil {
		t.Fatalf("VerifyAPIKey returned error for wrong key: %v", err)
	}
	if ok {
		t.Fatal("VerifyAPIKey accepted the wrong key")
	}
}

func TestHashAPIKeyRejectsEmpty(t *testing.T) {
	if _, err := security.HashAPIKey("", testConfig()); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestVerifyAPIKeyMalformedHash(t *testing.T) {
	if _, err := security.VerifyAPIKey("msk_x", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
