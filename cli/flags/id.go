package flags

import (
	"flag"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/urfave/cli"
)

// ID is a wrapper for a ledger.ID (address or object ID) with flag.Value
// methods.
type ID struct {
	IsSet bool
	Value ledger.ID
}

// IDFlag is a flag with type ledger.ID.
type IDFlag struct {
	Name  string
	Usage string
	Value ID
}

var (
	_ flag.Value = (*ID)(nil)
	_ cli.Flag   = IDFlag{}
)

// String implements the fmt.Stringer interface.
func (a ID) String() string {
	if !a.IsSet {
		return ""
	}
	return a.Value.String()
}

// Set implements the flag.Value interface.
func (a *ID) Set(s string) error {
	id, err := ledger.ParseID(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.IsSet = true
	a.Value = id
	return nil
}

// ID returns the value if it's set and nil otherwise.
func (a *ID) ID() *ledger.ID {
	if !a.IsSet {
		return nil
	}
	id := a.Value
	return &id
}

// String returns a readable representation of this value
// (for usage defaults).
func (f IDFlag) String() string {
	return helpString(f.Name, f.Usage)
}

// GetName returns the name of the flag.
func (f IDFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f IDFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// GetID returns the value of the named IDFlag from the context.
func GetID(ctx *cli.Context, name string) *ledger.ID {
	v, ok := ctx.Generic(firstName(name)).(*ID)
	if !ok {
		return nil
	}
	return v.ID()
}
