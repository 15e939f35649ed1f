package authinfra_test

import (
	"testing"

	"github.com/Abraxas-365/academy/pkg/iam/auth/authinfra"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPasswordService_RoundTrip(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(bcrypt.MinCost)

	hash, err := svc.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !svc.Verify("correct horse", hash) {
		t.Error("correct password rejected")
	}
	if svc.Verify("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestBcryptPasswordService_EmptyCredentialNeverVerifies(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(bcrypt.MinCost)

	// Federation-only accounts store no hash; nothing may verify against
	// the empty credential, not even the empty password.
	if svc.Verify("", "") {
		t.Fatal("empty credential verified")
	}
	if svc.Verify("anything", "") {
		t.Fatal("empty credential verified")
	}
}

func TestBcryptPasswordService_InvalidCostFallsBack(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(99)

	hash, err := svc.Hash("pw")
	if err != nil {
		t.Fatalf("Hash failed with fallback cost: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost failed: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost: got %d, want default %d", cost, bcrypt.DefaultCost)
	}
}
