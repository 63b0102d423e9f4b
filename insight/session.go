package insight

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Session lifecycle. A session never returns to active; observe again
// by constructing a new one.
const (
	stateInactive = iota
	stateActive
	stateFinished
)

// Session observes interaction with a target between Start and Close.
// Construct with New, then either wrap the scope in Run or pair Start
// with a deferred Close. A session serves exactly one goroutine; the
// pending-interaction stack is deliberately unsynchronized.
type Session struct {
	typ      reflect.Type
	instance reflect.Value // invalid for type-wide sessions

	functionCalls       bool
	attributeAccess     bool
	attributeAssignment bool
	attributeDeletion   bool
	showMethodAccess    bool
	prefix              string

	out io.Writer
	log *zap.SugaredLogger
	clk clock.Clock

	saved    *hooks // registry entry found at Start; restored by Close
	hadSaved bool
	stack    []string
	stats    Stats
	started  time.Time
	state    int
	guarded  bool
}

// Option configures a Session at construction.
type Option func(*Session)

// WithFunctionCalls toggles logging of method invocations (default
// true). Disabled, a fetched method is handed back unwrapped and its
// calls run silently.
func WithFunctionCalls(on bool) Option {
	return func(s *Session) { s.functionCalls = on }
}

// WithAttributeAccess toggles logging of plain field reads (default
// true).
func WithAttributeAccess(on bool) Option {
	return func(s *Session) { s.attributeAccess = on }
}

// WithAttributeAssignment toggles logging of field writes (default
// true).
func WithAttributeAssignment(on bool) Option {
	return func(s *Session) { s.attributeAssignment = on }
}

// WithAttributeDeletion toggles logging of field clears (default
// true).
func WithAttributeDeletion(on bool) Option {
	return func(s *Session) { s.attributeDeletion = on }
}

// WithMethodAccess toggles logging of method *access* (default false).
// It is usually impossible to tell whether an accessor means to call
// the method, so the access itself stays quiet unless asked for.
func WithMethodAccess(on bool) Option {
	return func(s *Session) { s.showMethodAccess = on }
}

// WithPrefix sets the string prepended to every output line (default
// "Insight: ").
func WithPrefix(prefix string) Option {
	return func(s *Session) { s.prefix = prefix }
}

// WithOutput redirects trace output away from os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithLogger wires a zap logger for verbose lifecycle diagnostics.
// Trace lines are unaffected; they always go to the output writer.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log.Sugar() }
}

// WithClock substitutes the clock used for session duration, for
// tests.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clk = c }
}

// New builds a session for target. Passing a reflect.Type (see Type)
// observes every instance of that type; passing an instance observes
// only that instance, with interaction on siblings of the same type
// fast-tracked straight to the underlying behavior. The session does
// nothing until Start.
func New(target any, opts ...Option) *Session {
	s := &Session{
		functionCalls:       true,
		attributeAccess:     true,
		attributeAssignment: true,
		attributeDeletion:   true,
		prefix:              "Insight: ",
		out:                 os.Stdout,
		log:                 zap.NewNop().Sugar(),
		clk:                 clock.New(),
	}
	if t, ok := target.(reflect.Type); ok {
		s.typ = canonicalType(t)
	} else {
		s.instance = reflect.ValueOf(target)
		s.typ = canonicalType(s.instance.Type())
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start saves the handlers currently serving the target type and
// installs the session's wrappers. Nesting two sessions on the same
// type is unsupported: the inner session's restore clobbers the
// outer's wrappers.
func (s *Session) Start() error {
	switch s.state {
	case stateActive:
		return errors.New("insight: session already started")
	case stateFinished:
		return errors.New("insight: session is finished; construct a new one")
	}
	prev, had := lookup(s.typ)
	base := prev
	if !had {
		base = defaults
	}
	swap(s.typ, s.wrappers(base), true)
	s.saved, s.hadSaved = prev, had
	s.started = s.clk.Now()
	s.state = stateActive
	s.log.Debugw("hooks installed",
		"type", s.typ.String(),
		"instance_scoped", s.instance.IsValid(),
	)
	return nil
}

// Close restores the saved handlers and marks the session finished.
// Call it deferred: when a panic is unwinding through it, Close prints
// the failure and every still-pending interaction before letting the
// panic continue. It never swallows the panic.
func (s *Session) Close() {
	if r := recover(); r != nil {
		s.reportFailure(failureHead(r))
		s.finish()
		panic(r)
	}
	s.finish()
}

// Run executes fn within the session's scope. A non-nil error out of
// fn, or a panic, triggers the same pending-stack diagnostics as a
// panicking deferred Close; either way the saved handlers are restored
// and the failure propagates to the caller untouched.
func (s *Session) Run(fn func() error) (err error) {
	if err := s.Start(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			s.reportFailure(failureHead(r))
			s.finish()
			panic(r)
		}
		if err != nil {
			s.reportFailure(failureHead(err))
		}
		s.finish()
	}()
	return fn()
}

// Stats reports what the session has observed so far.
func (s *Session) Stats() Stats {
	st := s.stats
	if s.state == stateActive {
		st.Duration = s.clk.Since(s.started)
	}
	return st
}

func (s *Session) finished() bool { return s.state == stateFinished }

// finish restores the registry unconditionally, exactly once.
func (s *Session) finish() {
	if s.state != stateActive {
		s.state = stateFinished
		return
	}
	s.stats.Duration = s.clk.Since(s.started)
	s.state = stateFinished
	swap(s.typ, s.saved, s.hadSaved)
	s.log.Debugw("hooks restored",
		"type", s.typ.String(),
		"events", s.stats.Total(),
		"elapsed", s.stats.Duration,
	)
}

// reportFailure prints the failure head and the pending interaction
// stack, oldest first: the chain that was in flight when things fell
// apart.
func (s *Session) reportFailure(head string) {
	s.printf("%s", head)
	for _, frame := range s.stack {
		s.printf("  during: %s", frame)
	}
}

func failureHead(r any) string {
	if err, ok := r.(error); ok {
		return fmt.Sprintf("%T: %v", err, err)
	}
	return fmt.Sprintf("panic: %v", r)
}

// wrappers builds the handler set Start installs. Each wrapper closes
// over the handlers it displaced, so a category with its toggle off
// keeps the underlying behavior untouched.
func (s *Session) wrappers(base *hooks) *hooks {
	h := &hooks{read: base.read, write: base.write, clear: base.clear}
	if s.functionCalls || s.attributeAccess || s.showMethodAccess {
		h.read = s.readWrapper(base.read)
	}
	if s.attributeAssignment {
		h.write = s.writeWrapper(base.write)
	}
	if s.attributeDeletion {
		h.clear = s.clearWrapper(base.clear)
	}
	return h
}

func (s *Session) readWrapper(orig func(reflect.Value, string) (any, error)) func(reflect.Value, string) (any, error) {
	return func(recv reflect.Value, name string) (any, error) {
		if s.fastTrack(recv) {
			return orig(recv, name)
		}
		var repr, desc string
		s.guard(func() {
			repr = s.repr(recv)
			desc = repr + "." + name
			s.push(desc)
		})
		value, err := orig(recv, name)
		if err != nil {
			// Leave the description pending; exit diagnostics
			// will name the access that failed.
			return nil, err
		}
		out := value
		s.guard(func() {
			s.pop()
			if m, ok := value.(*Method); ok && sameInstance(m.recv, recv) {
				s.stats.MethodAccesses++
				if s.showMethodAccess {
					s.printf("%s -> %s", desc, m)
				}
				if s.functionCalls {
					bound := *m
					bound.sess = s
					bound.repr = repr
					out = &bound
				}
				return
			}
			s.stats.Reads++
			if s.attributeAccess {
				s.printf("%s -> %s", desc, formatValue(value))
			}
		})
		return out, nil
	}
}

func (s *Session) writeWrapper(orig func(reflect.Value, string, any) error) func(reflect.Value, string, any) error {
	return func(recv reflect.Value, name string, value any) error {
		if s.fastTrack(recv) {
			return orig(recv, name, value)
		}
		var desc string
		s.guard(func() {
			desc = fmt.Sprintf("%s.%s = %s", s.repr(recv), name, formatValue(value))
			s.push(desc)
		})
		if err := orig(recv, name, value); err != nil {
			return err
		}
		s.guard(func() {
			s.pop()
			s.stats.Writes++
			s.printf("%s", desc)
		})
		return nil
	}
}

func (s *Session) clearWrapper(orig func(reflect.Value, string) error) func(reflect.Value, string) error {
	return func(recv reflect.Value, name string) error {
		if s.fastTrack(recv) {
			return orig(recv, name)
		}
		var desc string
		s.guard(func() {
			desc = fmt.Sprintf("del %s.%s", s.repr(recv), name)
			s.push(desc)
		})
		if err := orig(recv, name); err != nil {
			return err
		}
		s.guard(func() {
			s.pop()
			s.stats.Clears++
			s.printf("%s", desc)
		})
		return nil
	}
}

// fastTrack reports whether an interaction should bypass interception:
// either bookkeeping is in progress, or the session watches one
// instance and this is a different one.
func (s *Session) fastTrack(recv reflect.Value) bool {
	if s.guarded {
		return true
	}
	if !s.instance.IsValid() {
		return false
	}
	return !sameInstance(s.instance, recv)
}

// guard runs fn with the recursion guard held. Building a description
// calls the target's String method, which may itself read fields
// through Get; the guard keeps that bookkeeping from re-entering
// interception.
func (s *Session) guard(fn func()) {
	s.guarded = true
	fn()
	s.guarded = false
}

// repr renders recv the way the target presents itself. Only called
// under the recursion guard.
func (s *Session) repr(recv reflect.Value) string {
	if str, ok := recv.Interface().(fmt.Stringer); ok {
		return str.String()
	}
	return formatValue(recv.Interface())
}

func (s *Session) push(desc string) { s.stack = append(s.stack, desc) }

func (s *Session) pop() { s.stack = s.stack[:len(s.stack)-1] }

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, "%s%s\n", s.prefix, fmt.Sprintf(format, args...))
}

func sameInstance(a, b reflect.Value) bool {
	if a.Kind() == reflect.Pointer && b.Kind() == reflect.Pointer {
		return a.Pointer() == b.Pointer()
	}
	if a.Type() != b.Type() || !a.Comparable() {
		return false
	}
	return a.Equal(b)
}
