package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerify(t *testing.T) {
	hasher := security.NewHasher(testParams)
	hash, err := hasher.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	match, err := hasher.Verify("very-secure-password", hash)
	if err != nil || !match.OK || match.NeedsRehash {
		t.Fatalf("expected clean match, got %+v err=%v", match, err)
	}

	match, err = hasher.Verify("bogus-password", hash)
	if err != nil || match.OK {
		t.Fatalf("expected mismatch, got %+v err=%v", match, err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher := security.NewHasher(testParams)
	a, _ := hasher.Hash("same")
	b, _ := hasher.Hash("same")
	if a == b {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	if _, err := security.NewHasher(testParams).Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := security.NewHasher(testParams)
	for _, stored := range []string{
		"$argon2id$v=19$m=8192,t=1,p=1$onlysalt",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		if _, err := hasher.Verify("irrelevant", stored); err != security.ErrInvalidHash {
			t.Fatalf("%q: expected ErrInvalidHash, got %v", stored, err)
		}
	}
}

func TestVerifyLegacyPlaintext(t *testing.T) {
	hasher := security.NewHasher(testParams)
	if security.IsHash("hunter2") {
		t.Fatal("plaintext must not be treated as a hash")
	}
	match, err := hasher.Verify("hunter2", "hunter2")
	if err != nil || !match.OK || !match.NeedsRehash {
		t.Fatalf("expected legacy match needing rehash, got %+v err=%v", match, err)
	}
	match, _ = hasher.Verify("hunter3", "hunter2")
	if match.OK || match.NeedsRehash {
		t.Fatalf("expected legacy mismatch, got %+v", match)
	}
}

func TestVerifyFlagsOutdatedCost(t *testing.T) {
	old, err := security.NewHasher(testParams).Hash("pw")
	if err != nil {
		t.Fatal(err)
	}
	stronger := testParams
	stronger.ArgonTime = 3

	match, err := security.NewHasher(stronger).Verify("pw", old)
	if err != nil || !match.OK || !match.NeedsRehash {
		t.Fatalf("expected match needing rehash, got %+v err=%v", match, err)
	}
}

func TestCostIsClamped(t *testing.T) {
	hash, err := security.NewHasher(config.PasswordConfig{}).Hash("pw")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(hash, "$m=8,t=1,p=1$") {
		t.Fatalf("expected minimum cost, got %q", hash)
	}
}
