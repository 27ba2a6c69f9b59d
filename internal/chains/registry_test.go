package chains

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"multigofer/internal/config"
)

func TestRegistry_MulticallAddress(t *testing.T) {
	custom := "0x1234567890123456789012345678901234567890"
	r, err := NewRegistry(&config.Config{
		MulticallAddresses: map[string]string{"324": custom},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if got := r.MulticallAddress(324); got != common.HexToAddress(custom) {
		t.Errorf("MulticallAddress(324) = %s, want %s", got.Hex(), custom)
	}
	if got := r.MulticallAddress(1); got != DefaultMulticallAddress {
		t.Errorf("MulticallAddress(1) = %s, want default", got.Hex())
	}
}

func TestRegistry_StateOverrideSupported(t *testing.T) {
	r, err := NewRegistry(&config.Config{
		NoStateOverrideChains: []uint64{324, 1101},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if r.StateOverrideSupported(324) {
		t.Error("StateOverrideSupported(324) = true, want false")
	}
	if !r.StateOverrideSupported(1) {
		t.Error("StateOverrideSupported(1) = false, want true")
	}
}

func TestRegistry_InvalidConfig(t *testing.T) {
	if _, err := NewRegistry(&config.Config{
		MulticallAddresses: map[string]string{"eth": "0x1234567890123456789012345678901234567890"},
	}); err == nil {
		t.Error("NewRegistry succeeded with non-numeric chain id")
	}

	if _, err := NewRegistry(&config.Config{
		MulticallAddresses: map[string]string{"1": "0xbad"},
	}); err == nil {
		t.Error("NewRegistry succeeded with malformed address")
	}
}
