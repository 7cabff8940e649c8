package lockbox

import (
	"context"
	"testing"
	"time"
)

func TestBlockTime(t *testing.T) {
	if _, ok := BlockTime(context.Background()); ok {
		t.Fatal("no block time was set")
	}

	now := time.Unix(1600000000, 0)
	ctx := WithBlockTime(context.Background(), now)
	got, ok := BlockTime(ctx)
	if !ok {
		t.Fatal("block time was set")
	}
	if !got.Equal(now) {
		t.Fatalf("got %s", got)
	}
	// the stored value is normalized to UTC
	if got.Location() != time.UTC {
		t.Fatalf("got location %s", got.Location())
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1600000000, 0)
	ctx := WithBlockTime(context.Background(), now)

	if IsExpired(ctx, AsUnixTime(now.Add(time.Minute))) {
		t.Fatal("future time must not be expired")
	}
	// expiration is inclusive
	if !IsExpired(ctx, AsUnixTime(now)) {
		t.Fatal("present time must be expired")
	}
	if !IsExpired(ctx, AsUnixTime(now.Add(-time.Minute))) {
		t.Fatal("past time must be expired")
	}
}

func TestIsExpiredPanicsWithoutBlockTime(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	IsExpired(context.Background(), AsUnixTime(time.Now()))
}
