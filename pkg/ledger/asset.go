package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AssetType is a canonical type identifier of the form
// "0x<64 hex digits>::module::Name" optionally followed by type parameters
// in angle brackets. Values of this type are always canonical when created
// with ParseAssetType, so they can be compared directly.
type AssetType string

// CoinStructSuffix is the module and struct name of coin objects, their
// asset type is the only type parameter of it.
const CoinStructSuffix = "::coin::Coin"

var errEmptyType = errors.New("empty type")

// ParseAssetType canonicalizes the given type string expanding short-form
// addresses (like "0x2") to their full form, including addresses found in
// type parameters.
func ParseAssetType(s string) (AssetType, error) {
	c, err := canonicalType(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("bad type %q: %w", s, err)
	}
	return AssetType(c), nil
}

// MustParseAssetType is like ParseAssetType, but panics on error.
func MustParseAssetType(s string) AssetType {
	t, err := ParseAssetType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String implements the fmt.Stringer interface.
func (t AssetType) String() string {
	return string(t)
}

// IsStruct checks whether the type is a struct (address::module::name)
// rather than a primitive.
func (t AssetType) IsStruct() bool {
	return strings.Contains(string(t), "::")
}

// Short returns the type with address written in short form (leading zeroes
// stripped), it's only used for presentation.
func (t AssetType) Short() string {
	s := string(t)
	if !strings.HasPrefix(s, "0x") {
		return s
	}
	end := strings.Index(s, "::")
	if end < 0 {
		return s
	}
	addr := strings.TrimLeft(s[2:end], "0")
	if addr == "" {
		addr = "0"
	}
	return "0x" + addr + s[end:]
}

// UnmarshalJSON implements the json.Unmarshaler interface, the value is
// canonicalized.
func (t *AssetType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface, the value is
// canonicalized.
func (t *AssetType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseAssetType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CoinTypeOf extracts the asset type from a coin object type
// ("0x2::coin::Coin<T>" returns T). ok is false for non-coin objects.
func CoinTypeOf(objectType string) (AssetType, bool) {
	c, err := canonicalType(strings.TrimSpace(objectType))
	if err != nil {
		return "", false
	}
	open := strings.IndexByte(c, '<')
	if open < 0 || !strings.HasSuffix(c, ">") {
		return "", false
	}
	head := c[:open]
	if !strings.HasSuffix(head, CoinStructSuffix) {
		return "", false
	}
	params, err := splitParams(c[open+1 : len(c)-1])
	if err != nil || len(params) != 1 {
		return "", false
	}
	return AssetType(params[0]), true
}

const vectorType = "vector"

// primitives are the only types allowed without address and module.
var primitives = map[string]struct{}{
	"bool":     {},
	"u8":       {},
	"u16":      {},
	"u32":      {},
	"u64":      {},
	"u128":     {},
	"u256":     {},
	"address":  {},
	"signer":   {},
	vectorType: {},
}

func canonicalType(s string) (string, error) {
	if s == "" {
		return "", errEmptyType
	}
	head, params := s, ""
	if open := strings.IndexByte(s, '<'); open >= 0 {
		if !strings.HasSuffix(s, ">") {
			return "", errors.New("unbalanced type parameters")
		}
		head, params = s[:open], s[open+1:len(s)-1]
	}
	parts := strings.Split(head, "::")
	switch len(parts) {
	case 1:
		if _, ok := primitives[head]; !ok {
			return "", fmt.Errorf("unknown primitive type %q", head)
		}
		if (head == vectorType) != (params != "" || strings.ContainsRune(s, '<')) {
			return "", fmt.Errorf("bad %s type parameters", head)
		}
	case 3:
		addr, err := ParseID(parts[0])
		if err != nil {
			return "", err
		}
		if parts[1] == "" || parts[2] == "" {
			return "", errors.New("empty module or struct name")
		}
		head = addr.String() + "::" + parts[1] + "::" + parts[2]
	default:
		return "", fmt.Errorf("expected address::module::name, got %q", head)
	}
	if params == "" {
		if strings.ContainsRune(s, '<') {
			return "", errors.New("empty type parameters")
		}
		return head, nil
	}
	list, err := splitParams(params)
	if err != nil {
		return "", err
	}
	if head == vectorType && len(list) != 1 {
		return "", fmt.Errorf("%s takes one type parameter, got %d", vectorType, len(list))
	}
	for i := range list {
		list[i], err = canonicalType(list[i])
		if err != nil {
			return "", err
		}
	}
	return head + "<" + strings.Join(list, ", ") + ">", nil
}

// splitParams splits comma-separated type parameters respecting nesting.
func splitParams(s string) ([]string, error) {
	var (
		res   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced type parameters")
			}
		case ',':
			if depth == 0 {
				res = append(res, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced type parameters")
	}
	res = append(res, strings.TrimSpace(s[start:]))
	for _, p := range res {
		if p == "" {
			return nil, errEmptyType
		}
	}
	return res, nil
}

// AssetTypeSet is a set of asset types.
type AssetTypeSet map[AssetType]struct{}

// NewAssetTypeSet creates a set containing the given types.
func NewAssetTypeSet(types ...AssetType) AssetTypeSet {
	s := make(AssetTypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Contains checks whether t is in the set.
func (s AssetTypeSet) Contains(t AssetType) bool {
	_, ok := s[t]
	return ok
}
