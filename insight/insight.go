// Package insight is a debugging patch for live values: point a
// session at a type or an instance and every field read, field write,
// field clear and method call routed through this package is printed
// while the session's scope lasts. Gain some insight.
//
// Go has no attribute protocol to hook, so interception is explicit:
// interaction with the target flows through Get, Set, Clear and
// Method.Call, which dispatch through a per-type handler table. An
// active session swaps logging wrappers into that table and restores
// the previous handlers when its scope ends, even when the scope ends
// by panic.
//
//	sess := insight.New(acct)
//	err := sess.Run(func() error {
//		insight.Set(acct, "Balance", 45)
//		_, err := insight.Call(acct, "Deposit", 5)
//		return err
//	})
package insight

import (
	"fmt"
	"reflect"
)

// Type selects a whole type as a session target: New(Type[*Account]())
// observes every *Account, where New(acct) observes just acct.
func Type[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get reads a field of target by name, or fetches one of its methods
// as a bound *Method. Dispatches through whatever handlers are active
// for target's type, so an observing session sees the access.
func Get(target any, name string) (any, error) {
	recv := reflect.ValueOf(target)
	return hooksFor(canonicalType(recv.Type())).read(recv, name)
}

// Set writes a field of target by name.
func Set(target any, name string, value any) error {
	recv := reflect.ValueOf(target)
	return hooksFor(canonicalType(recv.Type())).write(recv, name, value)
}

// Clear resets a field of target to its zero value, the closest Go
// analog of deleting an attribute.
func Clear(target any, name string) error {
	recv := reflect.ValueOf(target)
	return hooksFor(canonicalType(recv.Type())).clear(recv, name)
}

// Call fetches a bound method through Get and invokes it in one step.
func Call(target any, name string, args ...any) ([]any, error) {
	v, err := Get(target, name)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Method)
	if !ok {
		return nil, fmt.Errorf("insight: %s.%s is not a method", typeName(reflect.TypeOf(target)), name)
	}
	return m.Call(args...)
}
