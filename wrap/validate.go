package wrap

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/jonwraymond/callops/cache"
)

// ErrValidation is matched by every argument validation failure.
var ErrValidation = errors.New("wrap: invalid argument")

// ValidationError reports one argument that failed a rule.
type ValidationError struct {
	// Arg names the argument: its position ("0", "1", ...) or its name.
	Arg    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wrap: invalid argument %s: %s", e.Arg, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Rule checks one argument value. It returns a reason on failure and nil
// when the value is acceptable.
type Rule func(v any) error

// NotNil rejects nil values, including typed nil pointers, maps, slices,
// channels, and funcs.
func NotNil() Rule {
	return func(v any) error {
		if isNil(v) {
			return errors.New("must not be nil")
		}
		return nil
	}
}

// OfType rejects values that are not assignable to T.
func OfType[T any]() Rule {
	return func(v any) error {
		if _, ok := v.(T); !ok {
			return fmt.Errorf("want %v, got %T", reflect.TypeFor[T](), v)
		}
		return nil
	}
}

// Check rejects values for which ok returns false, reporting msg.
func Check(ok func(v any) bool, msg string) Rule {
	return func(v any) error {
		if !ok(v) {
			return errors.New(msg)
		}
		return nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Validator checks call arguments against per-argument rules. It holds no
// state beyond its rules and is safe for concurrent use once built.
//
// A positional rule fails when the call has too few positional values. Named
// rules apply only when the call supplies that name.
type Validator struct {
	positional map[int][]Rule
	named      map[string][]Rule
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{
		positional: make(map[int][]Rule),
		named:      make(map[string][]Rule),
	}
}

// Positional adds rules for the i-th positional argument.
func (v *Validator) Positional(i int, rules ...Rule) *Validator {
	v.positional[i] = append(v.positional[i], rules...)
	return v
}

// Named adds rules for a named argument.
func (v *Validator) Named(name string, rules ...Rule) *Validator {
	v.named[name] = append(v.named[name], rules...)
	return v
}

// Validate returns nil when args satisfy every rule. Otherwise it returns
// every failure, positional arguments first in order, then named arguments
// by name. The result matches ErrValidation.
func (v *Validator) Validate(args cache.Args) error {
	var result *multierror.Error

	indices := make([]int, 0, len(v.positional))
	for i := range v.positional {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	for _, i := range indices {
		arg := strconv.Itoa(i)
		if i < 0 || i >= len(args.Positional) {
			result = multierror.Append(result, &ValidationError{Arg: arg, Reason: "missing"})
			continue
		}
		if err := applyRules(arg, args.Positional[i], v.positional[i]); err != nil {
			result = multierror.Append(result, err)
		}
	}

	names := make([]string, 0, len(v.named))
	for name := range v.named {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := args.Named[name]
		if !ok {
			continue
		}
		if err := applyRules(name, value, v.named[name]); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result == nil {
		return nil
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	result.ErrorFormat = listFormat
	return result
}

// applyRules stops at the first failing rule for one argument. A panicking
// rule counts as a failure.
func applyRules(arg string, value any, rules []Rule) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ValidationError{Arg: arg, Reason: fmt.Sprintf("rule panicked: %v", p)}
		}
	}()
	for _, rule := range rules {
		if rerr := rule(value); rerr != nil {
			return &ValidationError{Arg: arg, Reason: rerr.Error()}
		}
	}
	return nil
}

func listFormat(errs []error) string {
	s := fmt.Sprintf("%d invalid arguments:", len(errs))
	for _, err := range errs {
		s += "\n\t* " + err.Error()
	}
	return s
}
