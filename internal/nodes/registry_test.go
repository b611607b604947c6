package nodes_test

import (
	"testing"
	"time"

	"courier/internal/clock"
	"courier/internal/nodes"
)

func TestRegister_IdempotentWithRefreshedLastSeen(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	reg := nodes.New(clk)

	reg.Register("http://peer-a:3000", "pk-a")
	first := reg.List()[0].LastSeen

	clk.Advance(time.Minute)
	reg.Register("http://peer-a:3000", "pk-a")

	if reg.Count() != 1 {
		t.Fatalf("duplicate register grew the registry to %d", reg.Count())
	}
	if got := reg.List()[0].LastSeen; !got.After(first) {
		t.Fatalf("last seen not refreshed: %v vs %v", got, first)
	}
}

func TestList_SortedByURL(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	reg := nodes.New(clk)

	reg.Register("http://peer-b:3000", "pk-b")
	reg.Register("http://peer-a:3000", "pk-a")

	got := reg.List()
	if len(got) != 2 {
		t.Fatalf("want 2 peers, got %d", len(got))
	}
	if got[0].URL != "http://peer-a:3000" || got[1].URL != "http://peer-b:3000" {
		t.Fatalf("unsorted list: %+v", got)
	}
}
