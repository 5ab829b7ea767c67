package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"reflect"
	"slices"

	"github.com/davecgh/go-spew/spew"
)

// Args is the full argument set of one call.
//
// Values are fingerprinted by type and content, unexported fields included.
// Pointers are followed, so two pointers to equal values fingerprint equally.
// time.Time values should be normalised with Round(0) or UTC() first, since
// the monotonic reading and location are part of their content.
type Args struct {
	// Positional holds positional values in call order.
	Positional []any

	// Named holds named values. Order is irrelevant.
	Named map[string]any
}

// NewArgs creates an Args from positional values.
func NewArgs(positional ...any) Args {
	return Args{Positional: positional}
}

// WithNamed returns a copy of a with name set to value.
func (a Args) WithNamed(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// argPrinter renders values deterministically: map keys sorted, no pointer
// addresses, no Stringer or error methods.
var argPrinter = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	SpewKeys:                true,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Fingerprint returns the SHA-256 fingerprint of a call to the named
// operation. Positional order is significant; named values are sorted by
// name before hashing. Values of different types never share a fingerprint,
// so int(1) and time.Duration(1) are distinct arguments.
func Fingerprint(name string, args Args) ([]byte, error) {
	for _, v := range args.Positional {
		if err := checkHashable(reflect.ValueOf(v), map[uintptr]bool{}); err != nil {
			return nil, err
		}
	}
	for k, v := range args.Named {
		if err := checkHashable(reflect.ValueOf(v), map[uintptr]bool{}); err != nil {
			return nil, fmt.Errorf("%w (named %q)", err, k)
		}
	}

	h := sha256.New()
	writeArgs(h, name, args)
	return h.Sum(nil), nil
}

func writeArgs(h hash.Hash, name string, args Args) {
	fmt.Fprintf(h, "name %q\npositional %d\n", name, len(args.Positional))
	for _, v := range args.Positional {
		argPrinter.Fdump(h, v)
	}

	names := make([]string, 0, len(args.Named))
	for k := range args.Named {
		names = append(names, k)
	}
	slices.Sort(names)

	fmt.Fprintf(h, "named %d\n", len(names))
	for _, k := range names {
		fmt.Fprintf(h, "%q\n", k)
		argPrinter.Fdump(h, args.Named[k])
	}
}

// checkHashable rejects values whose rendering would depend on addresses.
func checkHashable(v reflect.Value, seen map[uintptr]bool) error {
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s", ErrUnhashableArg, v.Type())

	case reflect.Pointer:
		if v.IsNil() || seen[v.Pointer()] {
			return nil
		}
		seen[v.Pointer()] = true
		return checkHashable(v.Elem(), seen)

	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkHashable(v.Elem(), seen)

	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			if err := checkHashable(v.Index(i), seen); err != nil {
				return err
			}
		}

	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkHashable(iter.Key(), seen); err != nil {
				return err
			}
			if err := checkHashable(iter.Value(), seen); err != nil {
				return err
			}
		}

	case reflect.Struct:
		for i := range v.NumField() {
			if err := checkHashable(v.Field(i), seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// Keyer generates deterministic store keys from call arguments.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a store key from an operation name and its arguments.
	Key(name string, args Args) (string, error)
}

// DefaultKeyer generates SHA-256 based keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic key.
// Format: memo:<name>:<hash>
// where hash is the hex encoded call fingerprint.
func (k *DefaultKeyer) Key(name string, args Args) (string, error) {
	fp, err := Fingerprint(name, args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("memo:%s:%s", name, hex.EncodeToString(fp)), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
