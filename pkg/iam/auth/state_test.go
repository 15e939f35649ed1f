package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/academy/pkg/iam/auth"
)

func TestInMemoryStateManager_ConsumeIsOneShot(t *testing.T) {
	m := auth.NewInMemoryStateManager(time.Minute)
	ctx := context.Background()

	state, err := m.Generate(ctx, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if state == "" {
		t.Fatal("expected a non-empty nonce")
	}

	ok, err := m.Consume(ctx, state)
	if err != nil || !ok {
		t.Fatalf("first consume: ok=%v err=%v", ok, err)
	}

	// Replay of the same nonce must fail.
	ok, err = m.Consume(ctx, state)
	if err != nil {
		t.Fatalf("second consume errored: %v", err)
	}
	if ok {
		t.Fatal("nonce consumed twice")
	}
}

func TestInMemoryStateManager_UnknownState(t *testing.T) {
	m := auth.NewInMemoryStateManager(time.Minute)

	ok, err := m.Consume(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("Consume errored: %v", err)
	}
	if ok {
		t.Fatal("unknown nonce accepted")
	}
}

func TestInMemoryStateManager_ExpiredState(t *testing.T) {
	m := auth.NewInMemoryStateManager(time.Minute)
	ctx := context.Background()

	state, err := m.Generate(ctx, time.Nanosecond)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	ok, err := m.Consume(ctx, state)
	if err != nil {
		t.Fatalf("Consume errored: %v", err)
	}
	if ok {
		t.Fatal("expired nonce accepted")
	}
}

func TestGenerateStateNonce_Unique(t *testing.T) {
	a, err := auth.GenerateStateNonce()
	if err != nil {
		t.Fatalf("nonce failed: %v", err)
	}
	b, err := auth.GenerateStateNonce()
	if err != nil {
		t.Fatalf("nonce failed: %v", err)
	}
	if a == b {
		t.Fatal("nonces must be unique")
	}
}
