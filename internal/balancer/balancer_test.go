package balancer

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"multigofer/internal/upstream"
)

type stubProvider struct {
	main     []*upstream.Endpoint
	fallback []*upstream.Endpoint
}

func (p *stubProvider) GetAvailableMain() []*upstream.Endpoint     { return p.main }
func (p *stubProvider) GetAvailableFallback() []*upstream.Endpoint { return p.fallback }

func makeEndpoint(name string, weight int, role upstream.Role) *upstream.Endpoint {
	return upstream.NewEndpoint(upstream.EndpointConfig{
		Name:           name,
		RPCURL:         "http://" + name,
		Weight:         weight,
		Role:           role,
		RequestTimeout: time.Second,
		Logger:         zerolog.Nop(),
	})
}

func TestWeightedRoundRobin_SingleEndpoint(t *testing.T) {
	a := makeEndpoint("a", 1, upstream.RoleMain)
	wrr := NewWeightedRoundRobin(&stubProvider{main: []*upstream.Endpoint{a}})

	for i := 0; i < 3; i++ {
		if got := wrr.Next(nil); got != a {
			t.Fatalf("Next() = %v, want a", got)
		}
	}
}

func TestWeightedRoundRobin_RespectsWeights(t *testing.T) {
	a := makeEndpoint("a", 3, upstream.RoleMain)
	b := makeEndpoint("b", 1, upstream.RoleMain)
	wrr := NewWeightedRoundRobin(&stubProvider{main: []*upstream.Endpoint{a, b}})

	counts := map[string]int{}
	for i := 0; i < 40; i++ {
		ep := wrr.Next(nil)
		if ep == nil {
			t.Fatal("Next() = nil")
		}
		counts[ep.Name()]++
	}

	if counts["a"] != 30 || counts["b"] != 10 {
		t.Errorf("counts = %v, want a:30 b:10", counts)
	}
}

func TestWeightedRoundRobin_FallbackWhenNoMain(t *testing.T) {
	fb := makeEndpoint("fb", 1, upstream.RoleFallback)
	wrr := NewWeightedRoundRobin(&stubProvider{fallback: []*upstream.Endpoint{fb}})

	if got := wrr.Next(nil); got != fb {
		t.Errorf("Next() = %v, want fallback", got)
	}
}

func TestWeightedRoundRobin_PrefersMainOverFallback(t *testing.T) {
	main := makeEndpoint("main", 1, upstream.RoleMain)
	fb := makeEndpoint("fb", 100, upstream.RoleFallback)
	wrr := NewWeightedRoundRobin(&stubProvider{
		main:     []*upstream.Endpoint{main},
		fallback: []*upstream.Endpoint{fb},
	})

	for i := 0; i < 5; i++ {
		if got := wrr.Next(nil); got != main {
			t.Fatalf("Next() = %s, want main", got.Name())
		}
	}
}

func TestWeightedRoundRobin_Exclude(t *testing.T) {
	a := makeEndpoint("a", 1, upstream.RoleMain)
	b := makeEndpoint("b", 1, upstream.RoleMain)
	wrr := NewWeightedRoundRobin(&stubProvider{main: []*upstream.Endpoint{a, b}})

	exclude := map[string]bool{"a": true}
	for i := 0; i < 5; i++ {
		if got := wrr.Next(exclude); got != b {
			t.Fatalf("Next() = %v, want b", got)
		}
	}
}

func TestWeightedRoundRobin_AllExcluded(t *testing.T) {
	a := makeEndpoint("a", 1, upstream.RoleMain)
	wrr := NewWeightedRoundRobin(&stubProvider{main: []*upstream.Endpoint{a}})

	if got := wrr.Next(map[string]bool{"a": true}); got != nil {
		t.Errorf("Next() = %v, want nil", got)
	}
}

func TestWeightedRoundRobin_Empty(t *testing.T) {
	wrr := NewWeightedRoundRobin(&stubProvider{})
	if got := wrr.Next(nil); got != nil {
		t.Errorf("Next() = %v, want nil", got)
	}
}
