package flags

import (
	"flag"
	"strings"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/urfave/cli"
)

// AssetTypes is a list of asset types with flag.Value methods, the flag can
// be repeated or contain comma-separated types.
type AssetTypes struct {
	Value []ledger.AssetType
}

// AssetTypesFlag is a repeatable flag with type ledger.AssetType.
type AssetTypesFlag struct {
	Name  string
	Usage string
	Value AssetTypes
}

var (
	_ flag.Value = (*AssetTypes)(nil)
	_ cli.Flag   = AssetTypesFlag{}
)

// String implements the fmt.Stringer interface.
func (a AssetTypes) String() string {
	s := make([]string, len(a.Value))
	for i := range a.Value {
		s[i] = a.Value[i].String()
	}
	return strings.Join(s, ",")
}

// Set implements the flag.Value interface. Commas inside type parameters
// don't split types.
func (a *AssetTypes) Set(s string) error {
	for _, part := range splitTypes(s) {
		t, err := ledger.ParseAssetType(part)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		a.Value = append(a.Value, t)
	}
	return nil
}

func splitTypes(s string) []string {
	var (
		res   []string
		depth int
		start int
	)
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				res = append(res, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		res = append(res, last)
	}
	return res
}

// String returns a readable representation of this value
// (for usage defaults).
func (f AssetTypesFlag) String() string {
	return helpString(f.Name, f.Usage)
}

// GetName returns the name of the flag.
func (f AssetTypesFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f AssetTypesFlag) Apply(set *flag.FlagSet) {
	v := &AssetTypes{}
	eachName(f.Name, func(name string) {
		set.Var(v, name, f.Usage)
	})
}

// GetAssetTypes returns the value of the named AssetTypesFlag from the
// context.
func GetAssetTypes(ctx *cli.Context, name string) []ledger.AssetType {
	v, ok := ctx.Generic(firstName(name)).(*AssetTypes)
	if !ok {
		return nil
	}
	return v.Value
}
