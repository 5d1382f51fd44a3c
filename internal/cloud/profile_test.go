package cloud

import (
	"context"
	"fmt"
	"testing"
)

func TestProfileChainFirstAnswerWins(t *testing.T) {
	chain := NewProfileChain(
		func(ctx context.Context, userID string) (*Profile, error) {
			return &Profile{DisplayName: "Local"}, nil
		},
		func(ctx context.Context, userID string) (*Profile, error) {
			t.Error("second resolver should not run")
			return nil, nil
		},
	)

	p := chain.Resolve(context.Background(), "u1")
	if p == nil || p.DisplayName != "Local" {
		t.Errorf("Resolve = %+v, want Local", p)
	}
}

func TestProfileChainSkipsErrorsAndMisses(t *testing.T) {
	chain := NewProfileChain(
		func(ctx context.Context, userID string) (*Profile, error) {
			return nil, fmt.Errorf("unavailable")
		},
		func(ctx context.Context, userID string) (*Profile, error) {
			return nil, nil
		},
		func(ctx context.Context, userID string) (*Profile, error) {
			return &Profile{DisplayName: "Fallback", Country: "DE"}, nil
		},
	)

	p := chain.Resolve(context.Background(), "u1")
	if p == nil || p.DisplayName != "Fallback" || p.Country != "DE" {
		t.Errorf("Resolve = %+v", p)
	}
}

func TestProfileChainExhausted(t *testing.T) {
	chain := NewProfileChain(
		func(ctx context.Context, userID string) (*Profile, error) { return nil, nil },
	)
	if p := chain.Resolve(context.Background(), "u1"); p != nil {
		t.Errorf("Resolve = %+v, want nil", p)
	}
}

func TestFromUserDoc(t *testing.T) {
	ms := NewMemStore()
	name := "Isaac N."
	if err := ms.MergeUserDoc(context.Background(), "u1", UserDocPatch{DisplayName: &name}); err != nil {
		t.Fatal(err)
	}

	resolve := FromUserDoc(ms)

	p, err := resolve(context.Background(), "u1")
	if err != nil || p == nil || p.DisplayName != "Isaac N." {
		t.Errorf("resolve(u1) = %+v, %v", p, err)
	}

	p, err = resolve(context.Background(), "missing")
	if err != nil || p != nil {
		t.Errorf("resolve(missing) = %+v, %v, want nil, nil", p, err)
	}
}
