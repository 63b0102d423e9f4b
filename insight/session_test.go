package insight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gauge is the fixture most tests observe.
type gauge struct {
	Value int
	Label string
	Spare int
}

func (g *gauge) String() string { return fmt.Sprintf("gauge(%s)", g.Label) }

func (g *gauge) Get() int { return g.Value }

func (g *gauge) Add(n int) int {
	g.Value += n
	return g.Value
}

func (g *gauge) Pair() (int, string) { return g.Value, g.Label }

func (g *gauge) Boom(n int) int { panic("boom") }

func (g *gauge) SumIn(ns ...int) int {
	total := g.Value
	for _, n := range ns {
		total += n
	}
	return total
}

func TestAssignThenCallTrace(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a"}
	sess := New(Type[*gauge](), WithOutput(&buf))

	require.NoError(t, sess.Run(func() error {
		if err := Set(g, "Value", 5); err != nil {
			return err
		}
		out, err := Call(g, "Get")
		if err != nil {
			return err
		}
		require.Equal(t, []any{5}, out)
		return nil
	}))

	want := "Insight: gauge(a).Value = 5\n" +
		"Insight: gauge(a).Get() -> 5\n"
	assert.Equal(t, want, buf.String())
}

func TestDisabledCategoriesStayQuiet(t *testing.T) {
	tests := []struct {
		name   string
		opt    Option
		absent string
	}{
		{"assignment off", WithAttributeAssignment(false), ".Value = 5"},
		{"access off", WithAttributeAccess(false), ".Label -> "},
		{"calls off", WithFunctionCalls(false), ".Add(2)"},
		{"deletion off", WithAttributeDeletion(false), "del "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			g := &gauge{Label: "x", Spare: 9}
			sess := New(Type[*gauge](), WithOutput(&buf), tt.opt)

			require.NoError(t, sess.Run(func() error {
				if err := Set(g, "Value", 5); err != nil {
					return err
				}
				if _, err := Get(g, "Label"); err != nil {
					return err
				}
				if _, err := Call(g, "Add", 2); err != nil {
					return err
				}
				return Clear(g, "Spare")
			}))

			assert.NotContains(t, buf.String(), tt.absent)
			// The underlying operations ran regardless of logging.
			assert.Equal(t, 7, g.Value)
			assert.Zero(t, g.Spare)
		})
	}
}

func TestRestoreByReference(t *testing.T) {
	t.Run("unregistered type returns to defaults", func(t *testing.T) {
		g := &gauge{Label: "a"}
		typ := canonicalType(reflect.TypeOf(g))
		before := hooksFor(typ)

		var during *hooks
		sess := New(Type[*gauge](), WithOutput(io.Discard))
		require.NoError(t, sess.Run(func() error {
			during = hooksFor(typ)
			return nil
		}))

		after := hooksFor(typ)
		assert.NotSame(t, before, during)
		assert.Same(t, before, after)
		assert.Same(t, defaults, after)
	})

	t.Run("restores even when nothing was touched", func(t *testing.T) {
		typ := canonicalType(reflect.TypeOf(&gauge{}))
		sess := New(Type[*gauge](), WithOutput(io.Discard))
		require.NoError(t, sess.Start())
		sess.Close()
		assert.Same(t, defaults, hooksFor(typ))
	})

	t.Run("restores a pre-registered entry, not defaults", func(t *testing.T) {
		typ := canonicalType(reflect.TypeOf(&gauge{}))
		custom := &hooks{read: defaultRead, write: defaultWrite, clear: defaultClear}
		swap(typ, custom, true)
		defer swap(typ, nil, false)

		sess := New(Type[*gauge](), WithOutput(io.Discard))
		require.NoError(t, sess.Run(func() error { return nil }))

		assert.Same(t, custom, hooksFor(typ))
	})
}

func TestEscapedMethodRunsSilently(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a", Value: 3}
	var escaped *Method

	sess := New(Type[*gauge](), WithOutput(&buf))
	require.NoError(t, sess.Run(func() error {
		v, err := Get(g, "Get")
		if err != nil {
			return err
		}
		escaped = v.(*Method)
		return nil
	}))

	buf.Reset()
	out, err := escaped.Call()
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out)
	assert.Empty(t, buf.String(), "calls outside the scope must not log")
}

func TestInstanceScoping(t *testing.T) {
	t.Run("type-wide session sees every instance", func(t *testing.T) {
		var buf bytes.Buffer
		a := &gauge{Label: "a", Value: 1}
		b := &gauge{Label: "b", Value: 2}

		sess := New(Type[*gauge](), WithOutput(&buf))
		require.NoError(t, sess.Run(func() error {
			if _, err := Get(a, "Value"); err != nil {
				return err
			}
			_, err := Get(b, "Value")
			return err
		}))

		assert.Contains(t, buf.String(), "gauge(a).Value -> 1")
		assert.Contains(t, buf.String(), "gauge(b).Value -> 2")
	})

	t.Run("instance session ignores siblings", func(t *testing.T) {
		var buf bytes.Buffer
		a := &gauge{Label: "a", Value: 1}
		b := &gauge{Label: "b", Value: 2}

		sess := New(a, WithOutput(&buf))
		require.NoError(t, sess.Run(func() error {
			if _, err := Get(a, "Value"); err != nil {
				return err
			}
			v, err := Get(b, "Value")
			if err != nil {
				return err
			}
			// The sibling's read still works, just silently.
			require.Equal(t, 2, v)
			return nil
		}))

		assert.Contains(t, buf.String(), "gauge(a).Value -> 1")
		assert.NotContains(t, buf.String(), "gauge(b)")
	})
}

func TestPanicDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a"}
	sess := New(Type[*gauge](), WithOutput(&buf))

	require.PanicsWithValue(t, "boom", func() {
		_ = sess.Run(func() error {
			_, err := Call(g, "Boom", 1)
			return err
		})
	})

	out := buf.String()
	assert.Contains(t, out, "Insight: panic: boom\n")
	assert.Contains(t, out, "Insight:   during: gauge(a).Boom(1)\n")

	// Hooks came back despite the panic.
	assert.Same(t, defaults, hooksFor(canonicalType(reflect.TypeOf(g))))
}

func TestErrorDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	sentinel := errors.New("kaput")
	sess := New(Type[*gauge](), WithOutput(&buf))

	err := sess.Run(func() error { return sentinel })
	require.ErrorIs(t, err, sentinel)

	assert.Contains(t, buf.String(), "*errors.errorString: kaput")
}

func TestDeferredCloseReportsPanic(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a"}

	run := func() {
		sess := New(Type[*gauge](), WithOutput(&buf))
		require.NoError(t, sess.Start())
		defer sess.Close()
		_, _ = Call(g, "Boom", 7)
	}

	require.PanicsWithValue(t, "boom", run)
	assert.Contains(t, buf.String(), "during: gauge(a).Boom(7)")
	assert.Same(t, defaults, hooksFor(canonicalType(reflect.TypeOf(g))))
}

func TestMethodAccessWithoutCallLogging(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a", Value: 2}
	sess := New(Type[*gauge](), WithOutput(&buf),
		WithMethodAccess(true), WithFunctionCalls(false))

	require.NoError(t, sess.Run(func() error {
		v, err := Get(g, "Get")
		if err != nil {
			return err
		}
		out, err := v.(*Method).Call()
		if err != nil {
			return err
		}
		require.Equal(t, []any{2}, out)
		return nil
	}))

	out := buf.String()
	assert.Contains(t, out, "gauge(a).Get -> bound method gauge.Get")
	assert.NotContains(t, out, "Get()", "call logging is off")
}

func TestSessionCannotRestart(t *testing.T) {
	sess := New(Type[*gauge](), WithOutput(io.Discard))
	require.NoError(t, sess.Start())
	require.Error(t, sess.Start())
	sess.Close()
	require.Error(t, sess.Start())
}

// chatty reads its own field through Get while rendering itself; the
// recursion guard must keep that from logging or looping.
type chatty struct {
	Name string
}

func (c *chatty) String() string {
	v, err := Get(c, "Name")
	if err != nil {
		return "chatty(?)"
	}
	return fmt.Sprintf("chatty(%v)", v)
}

func TestRecursionGuard(t *testing.T) {
	var buf bytes.Buffer
	c := &chatty{Name: "n"}
	sess := New(Type[*chatty](), WithOutput(&buf))

	require.NoError(t, sess.Run(func() error {
		_, err := Get(c, "Name")
		return err
	}))

	assert.Equal(t, "Insight: chatty(n).Name -> n\n", buf.String())
}

func TestUnrelatedSessionsDoNotInteract(t *testing.T) {
	var gbuf, cbuf bytes.Buffer
	g := &gauge{Label: "a", Value: 1}
	c := &chatty{Name: "n"}

	outer := New(Type[*gauge](), WithOutput(&gbuf))
	require.NoError(t, outer.Run(func() error {
		inner := New(Type[*chatty](), WithOutput(&cbuf))
		if err := inner.Run(func() error {
			if _, err := Get(c, "Name"); err != nil {
				return err
			}
			_, err := Get(g, "Value")
			return err
		}); err != nil {
			return err
		}
		_, err := Get(g, "Value")
		return err
	}))

	assert.NotContains(t, gbuf.String(), "chatty")
	assert.NotContains(t, cbuf.String(), "gauge")
	assert.Equal(t, 2, len(bytes.Split(bytes.TrimSpace(gbuf.Bytes()), []byte("\n"))))

	assert.Same(t, defaults, hooksFor(canonicalType(reflect.TypeOf(g))))
	assert.Same(t, defaults, hooksFor(canonicalType(reflect.TypeOf(c))))
}

// plain has no String method; descriptions fall back to Go value
// syntax.
type plain struct {
	N int
}

func TestReprFallsBackToGoSyntax(t *testing.T) {
	var buf bytes.Buffer
	p := &plain{N: 5}
	sess := New(Type[*plain](), WithOutput(&buf))

	require.NoError(t, sess.Run(func() error {
		_, err := Get(p, "N")
		return err
	}))

	assert.Contains(t, buf.String(), "&{5}.N -> 5")
}

func TestCustomPrefix(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a"}
	sess := New(Type[*gauge](), WithOutput(&buf), WithPrefix(">> "))

	require.NoError(t, sess.Run(func() error {
		return Set(g, "Value", 1)
	}))

	assert.Equal(t, ">> gauge(a).Value = 1\n", buf.String())
}

func TestFailedLookupLeavesPendingFrame(t *testing.T) {
	var buf bytes.Buffer
	g := &gauge{Label: "a"}
	sess := New(Type[*gauge](), WithOutput(&buf))

	err := sess.Run(func() error {
		_, err := Get(g, "Missing")
		return err
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "has no field or method")
	assert.Contains(t, out, "during: gauge(a).Missing")
}
