package insight

import (
	"fmt"
	"reflect"

	"github.com/samber/lo"
)

// Method is a bound method handle produced by Get. When it was handed
// out by an active session with call logging enabled, invoking it logs
// the call and its results; once that session has finished, the handle
// keeps working but logs nothing.
type Method struct {
	name string
	recv reflect.Value
	fn   reflect.Value
	sess *Session
	repr string // receiver repr captured at access time
}

// Name returns the method's name.
func (m *Method) Name() string { return m.name }

func (m *Method) String() string {
	return fmt.Sprintf("bound method %s.%s", typeName(m.recv.Type()), m.name)
}

// Call invokes the method. Reflection-level failures (wrong arity, an
// unconvertible argument) come back as the error; whatever the method
// itself returns, errors included, comes back in the result slice, and
// a panic out of the method body propagates to the caller with the
// call description left pending for the session's exit diagnostics.
func (m *Method) Call(args ...any) ([]any, error) {
	if m.sess == nil || m.sess.finished() {
		return m.invoke(args)
	}
	s := m.sess
	var desc string
	s.guard(func() {
		desc = formatCall(m.repr, m.name, args)
		s.push(desc)
	})
	out, err := m.invoke(args)
	if err != nil {
		// Bad invocation: the description stays pending, like any
		// other failing interaction.
		return nil, err
	}
	s.guard(func() {
		s.pop()
		s.stats.Calls++
		s.printf("%s -> %s", desc, formatResults(out))
	})
	return out, nil
}

func (m *Method) invoke(args []any) ([]any, error) {
	ft := m.fn.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, fmt.Errorf("insight: %s takes at least %d arguments, got %d", m.name, ft.NumIn()-1, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("insight: %s takes %d arguments, got %d", m.name, ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		var want reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			want = ft.In(ft.NumIn() - 1).Elem()
		} else {
			want = ft.In(i)
		}
		v, err := coerce(a, want)
		if err != nil {
			return nil, fmt.Errorf("insight: argument %d of %s: %w", i+1, m.name, err)
		}
		in = append(in, v)
	}
	out := m.fn.Call(in)
	return lo.Map(out, func(v reflect.Value, _ int) any { return v.Interface() }), nil
}
