package ethcall

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// Signature is a parsed human-readable function signature of the form
// "name(inputTypes)(outputTypes)", e.g. "balanceOf(address)(uint256)".
// The output type group is optional.
type Signature struct {
	Raw      string // canonical "name(inputs)" form, selector source
	Name     string
	Inputs   abi.Arguments
	Outputs  abi.Arguments
	Selector [4]byte
}

// ParseSignature parses a human-readable function signature
func ParseSignature(sig string) (*Signature, error) {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, sig)

	open := strings.IndexByte(compact, '(')
	if open <= 0 {
		return nil, fmt.Errorf("invalid signature %q: missing function name or input list", sig)
	}
	name := compact[:open]

	inputsRaw, rest, err := balancedGroup(compact[open:])
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", sig, err)
	}

	var outputsRaw string
	if rest != "" {
		outputsRaw, rest, err = balancedGroup(rest)
		if err != nil || rest != "" {
			return nil, fmt.Errorf("invalid signature %q: malformed output list", sig)
		}
	}

	inputs, err := parseArguments(inputsRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", sig, err)
	}
	outputs, err := parseArguments(outputsRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", sig, err)
	}

	canonical := name + inputsRaw
	s := &Signature{
		Raw:     canonical,
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
	}
	copy(s.Selector[:], keccak256([]byte(canonical))[:4])
	return s, nil
}

// EncodeArgs packs arguments and prepends the function selector
func (s *Signature) EncodeArgs(args []interface{}) ([]byte, error) {
	coerced, err := coerceArgs(s.Inputs, args)
	if err != nil {
		return nil, &EncodeError{Func: s.Name, cause: err}
	}

	packed, err := s.Inputs.Pack(coerced...)
	if err != nil {
		return nil, &EncodeError{Func: s.Name, cause: err}
	}

	return append(s.Selector[:], packed...), nil
}

// DecodeValues unpacks returned bytes into positional values
func (s *Signature) DecodeValues(data []byte) ([]interface{}, error) {
	values, err := s.Outputs.UnpackValues(data)
	if err != nil {
		return nil, &DecodeError{Func: s.Name, cause: err}
	}
	return values, nil
}

// balancedGroup reads one balanced parenthesised group from the front of s.
// Returns the group including parens and the remainder.
func balancedGroup(s string) (string, string, error) {
	if s == "" || s[0] != '(' {
		return "", "", fmt.Errorf("expected '(' at %q", s)
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i+1], s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("unbalanced parentheses in %q", s)
}

// parseArguments converts a parenthesised type list into abi.Arguments
func parseArguments(group string) (abi.Arguments, error) {
	if group == "" || group == "()" {
		return nil, nil
	}
	inner := group[1 : len(group)-1]

	types, err := splitTypeList(inner)
	if err != nil {
		return nil, err
	}

	args := make(abi.Arguments, 0, len(types))
	for _, ts := range types {
		t, err := buildType(ts)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Type: t})
	}
	return args, nil
}

// splitTypeList splits a comma-separated type list at the top nesting level
func splitTypeList(s string) ([]string, error) {
	var result []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in type list %q", s)
			}
		case ',':
			if depth == 0 {
				result = append(result, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in type list %q", s)
	}
	result = append(result, s[start:])
	for _, t := range result {
		if t == "" {
			return nil, fmt.Errorf("empty type in list %q", s)
		}
	}
	return result, nil
}

// buildType converts a canonical type string into an abi.Type.
// Tuple types are written in parenthesised form, e.g. "(address,bytes)[]".
func buildType(ts string) (abi.Type, error) {
	if !strings.HasPrefix(ts, "(") {
		return abi.NewType(ts, "", nil)
	}

	group, suffix, err := balancedGroup(ts)
	if err != nil {
		return abi.Type{}, err
	}

	comps, err := tupleComponents(group)
	if err != nil {
		return abi.Type{}, err
	}
	return abi.NewType("tuple"+suffix, "", comps)
}

// tupleComponents builds the component descriptors for a tuple type
func tupleComponents(group string) ([]abi.ArgumentMarshaling, error) {
	types, err := splitTypeList(group[1 : len(group)-1])
	if err != nil {
		return nil, err
	}

	comps := make([]abi.ArgumentMarshaling, 0, len(types))
	for i, ts := range types {
		name := fmt.Sprintf("field%d", i)
		if strings.HasPrefix(ts, "(") {
			inner, suffix, err := balancedGroup(ts)
			if err != nil {
				return nil, err
			}
			nested, err := tupleComponents(inner)
			if err != nil {
				return nil, err
			}
			comps = append(comps, abi.ArgumentMarshaling{Name: name, Type: "tuple" + suffix, Components: nested})
			continue
		}
		comps = append(comps, abi.ArgumentMarshaling{Name: name, Type: ts})
	}
	return comps, nil
}

// keccak256 computes the legacy Keccak-256 hash
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
