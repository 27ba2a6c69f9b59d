package ethcall

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseSignature_Simple(t *testing.T) {
	sig, err := ParseSignature("balanceOf(address)(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}

	if sig.Name != "balanceOf" {
		t.Errorf("Name = %s, want balanceOf", sig.Name)
	}
	if sig.Raw != "balanceOf(address)" {
		t.Errorf("Raw = %s, want balanceOf(address)", sig.Raw)
	}
	if len(sig.Inputs) != 1 || len(sig.Outputs) != 1 {
		t.Errorf("inputs/outputs = %d/%d, want 1/1", len(sig.Inputs), len(sig.Outputs))
	}
	if got := hex.EncodeToString(sig.Selector[:]); got != "70a08231" {
		t.Errorf("Selector = %s, want 70a08231", got)
	}
}

func TestParseSignature_NoOutputs(t *testing.T) {
	sig, err := ParseSignature("transfer(address,uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if len(sig.Outputs) != 0 {
		t.Errorf("len(Outputs) = %d, want 0", len(sig.Outputs))
	}
	if got := hex.EncodeToString(sig.Selector[:]); got != "a9059cbb" {
		t.Errorf("Selector = %s, want a9059cbb", got)
	}
}

func TestParseSignature_NoInputs(t *testing.T) {
	sig, err := ParseSignature("totalSupply()(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if len(sig.Inputs) != 0 {
		t.Errorf("len(Inputs) = %d, want 0", len(sig.Inputs))
	}
	if got := hex.EncodeToString(sig.Selector[:]); got != "18160ddd" {
		t.Errorf("Selector = %s, want 18160ddd", got)
	}
}

func TestParseSignature_IgnoresSpaces(t *testing.T) {
	a, err := ParseSignature("transfer(address, uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	b, err := ParseSignature("transfer(address,uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if a.Selector != b.Selector {
		t.Error("selectors differ for equivalent signatures")
	}
}

func TestParseSignature_TupleOutput(t *testing.T) {
	sig, err := ParseSignature("positions(uint256)((address,uint256)[])")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if len(sig.Outputs) != 1 {
		t.Fatalf("len(Outputs) = %d, want 1", len(sig.Outputs))
	}
	if sig.Outputs[0].Type.String() != "(address,uint256)[]" {
		t.Errorf("output type = %s, want (address,uint256)[]", sig.Outputs[0].Type.String())
	}
}

func TestParseSignature_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"noparens",
		"(address)",
		"f(address",
		"f(address)(uint256",
		"f(address)(uint256)extra",
		"f(,)",
	} {
		if _, err := ParseSignature(raw); err == nil {
			t.Errorf("ParseSignature(%q) succeeded, want error", raw)
		}
	}
}

func TestSignature_EncodeArgs(t *testing.T) {
	sig, err := ParseSignature("balanceOf(address)(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}

	holder := "0x000000000000000000000000000000000000dEaD"
	data, err := sig.EncodeArgs([]interface{}{holder})
	if err != nil {
		t.Fatalf("EncodeArgs: %v", err)
	}

	if len(data) != 4+32 {
		t.Fatalf("len(data) = %d, want 36", len(data))
	}
	if !bytes.Equal(data[:4], sig.Selector[:]) {
		t.Error("data does not start with selector")
	}
	if got := common.BytesToAddress(data[16:36]); got != common.HexToAddress(holder) {
		t.Errorf("encoded address = %s, want %s", got.Hex(), holder)
	}
}

func TestSignature_EncodeArgs_WrongArity(t *testing.T) {
	sig, err := ParseSignature("balanceOf(address)(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if _, err := sig.EncodeArgs(nil); err == nil {
		t.Error("EncodeArgs(nil) succeeded, want error")
	}
}

func TestSignature_DecodeValues(t *testing.T) {
	sig, err := ParseSignature("totalSupply()(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}

	data := big.NewInt(42).FillBytes(make([]byte, 32))
	values, err := sig.DecodeValues(data)
	if err != nil {
		t.Fatalf("DecodeValues: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("len(values) = %d, want 1", len(values))
	}
	if v := values[0].(*big.Int); v.Int64() != 42 {
		t.Errorf("value = %s, want 42", v)
	}
}

func TestSignature_DecodeValues_Garbage(t *testing.T) {
	sig, err := ParseSignature("totalSupply()(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if _, err := sig.DecodeValues([]byte{0x01, 0x02}); err == nil {
		t.Error("DecodeValues on short data succeeded, want error")
	}
}
