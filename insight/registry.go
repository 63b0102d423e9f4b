package insight

import (
	"fmt"
	"reflect"
	"sync"
)

// hooks are the three interception points registered for a concrete
// type: field read (or bound-method fetch), field write, and field
// clear. A session saves the entry that was present when it started
// and puts it back, by reference, when it finishes.
type hooks struct {
	read  func(recv reflect.Value, name string) (any, error)
	write func(recv reflect.Value, name string, value any) error
	clear func(recv reflect.Value, name string) error
}

// defaults is the plain reflective behavior used whenever no session
// holds a type's registry entry. It is a singleton so restoring "no
// entry" and comparing handlers by reference both behave.
var defaults = &hooks{read: defaultRead, write: defaultWrite, clear: defaultClear}

var (
	registryMu sync.Mutex
	registry   = map[reflect.Type]*hooks{}
)

// hooksFor returns the handlers currently serving t.
func hooksFor(t reflect.Type) *hooks {
	registryMu.Lock()
	defer registryMu.Unlock()
	if h, ok := registry[t]; ok {
		return h
	}
	return defaults
}

// lookup reports the raw registry entry for t, distinguishing "no
// entry" from an installed one so a session can restore exactly the
// state it found.
func lookup(t reflect.Type) (*hooks, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	h, ok := registry[t]
	return h, ok
}

// swap replaces the registry entry for t. present=false removes the
// entry, returning the type to default behavior.
func swap(t reflect.Type, h *hooks, present bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if present {
		registry[t] = h
		return
	}
	delete(registry, t)
}

// canonicalType maps a target type to its registry key. Struct types
// are keyed by their pointer type so pointer-receiver methods and
// field writes resolve against the same entry.
func canonicalType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Struct {
		return reflect.PointerTo(t)
	}
	return t
}

func defaultRead(recv reflect.Value, name string) (any, error) {
	if m := recv.MethodByName(name); m.IsValid() {
		return &Method{name: name, recv: recv, fn: m}, nil
	}
	f, err := fieldOf(recv, name)
	if err != nil {
		return nil, err
	}
	return f.Interface(), nil
}

func defaultWrite(recv reflect.Value, name string, value any) error {
	f, err := fieldOf(recv, name)
	if err != nil {
		return err
	}
	if !f.CanSet() {
		return fmt.Errorf("insight: field %s.%s is not settable", typeName(recv.Type()), name)
	}
	v, err := coerce(value, f.Type())
	if err != nil {
		return fmt.Errorf("insight: %s.%s: %w", typeName(recv.Type()), name, err)
	}
	f.Set(v)
	return nil
}

func defaultClear(recv reflect.Value, name string) error {
	f, err := fieldOf(recv, name)
	if err != nil {
		return err
	}
	if !f.CanSet() {
		return fmt.Errorf("insight: field %s.%s is not settable", typeName(recv.Type()), name)
	}
	f.Set(reflect.Zero(f.Type()))
	return nil
}

// fieldOf resolves an exported struct field on recv, following one
// level of pointer indirection.
func fieldOf(recv reflect.Value, name string) (reflect.Value, error) {
	v := recv
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("insight: nil %s", v.Type())
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("insight: %s is not a struct", v.Type())
	}
	f := v.FieldByName(name)
	if !f.IsValid() {
		return reflect.Value{}, fmt.Errorf("insight: %s has no field or method %q", typeName(recv.Type()), name)
	}
	if !f.CanInterface() {
		return reflect.Value{}, fmt.Errorf("insight: field %s.%s is unexported", typeName(recv.Type()), name)
	}
	return f, nil
}

// coerce adapts value to the wanted type, converting where Go would
// allow an explicit conversion.
func coerce(value any, want reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if v.Type().ConvertibleTo(want) {
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", value, want)
}
