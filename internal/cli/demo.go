package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"insightful/insight"
	"insightful/internal/demo"
)

// DemoCmd runs the canned observation scenarios against a sample
// Account type.
type DemoCmd struct {
	Scenario         string `short:"s" default:"all" enum:"all,basic,instances,escape,methods" help:"Which scenario to run"`
	ShowMethodAccess bool   `help:"Log method access, not just calls"`
	Summary          bool   `help:"Print a per-category event summary after each scenario"`
}

var prefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)

// Run executes the demo command
func (c *DemoCmd) Run(globals *Globals) error {
	scenarios := []struct {
		name string
		fn   func(*Globals)
	}{
		{"basic", c.scenarioBasic},
		{"instances", c.scenarioInstances},
		{"escape", c.scenarioEscape},
		{"methods", c.scenarioMethods},
	}
	ran := false
	for _, sc := range scenarios {
		if c.Scenario != "all" && c.Scenario != sc.name {
			continue
		}
		if ran {
			fmt.Fprintln(globals.Stdout)
		}
		globals.Debug("running scenario %s", sc.name)
		sc.fn(globals)
		ran = true
	}
	if !ran {
		return outputErrorCommon(globals, "UNKNOWN_SCENARIO", fmt.Sprintf("unknown scenario: %s", c.Scenario))
	}
	return nil
}

// sessionOptions applies the configured toggles plus command flags to
// a fresh session.
func (c *DemoCmd) sessionOptions(globals *Globals) []insight.Option {
	tr := globals.Config.Trace
	opts := []insight.Option{
		insight.WithOutput(globals.Stdout),
		insight.WithPrefix(stylePrefix(globals)),
		insight.WithFunctionCalls(tr.FunctionCalls),
		insight.WithAttributeAccess(tr.AttributeAccess),
		insight.WithAttributeAssignment(tr.AttributeAssignment),
		insight.WithAttributeDeletion(tr.AttributeDeletion),
		insight.WithMethodAccess(tr.ShowMethodAccess || c.ShowMethodAccess),
	}
	if zl := globals.logger.Zap(); zl != nil {
		opts = append(opts, insight.WithLogger(zl))
	}
	return opts
}

// stylePrefix colorizes the trace prefix when writing to a real
// terminal.
func stylePrefix(globals *Globals) string {
	prefix := globals.Prefix
	if globals.Stdout != os.Stdout || !isatty.IsTerminal(os.Stdout.Fd()) {
		return prefix
	}
	trimmed := strings.TrimRight(prefix, " ")
	return prefixStyle.Render(trimmed) + prefix[len(trimmed):]
}

// scenarioBasic is the classic walkthrough: assign, call, clear, then
// a method that blows up mid-scope.
func (c *DemoCmd) scenarioBasic(globals *Globals) {
	fmt.Fprintln(globals.Stdout, "== basic trace ==")
	acct := demo.NewAccount("checking", 40)
	sess := insight.New(insight.Type[*demo.Account](), c.sessionOptions(globals)...)
	func() {
		defer func() {
			if r := recover(); r != nil {
				globals.Debug("demo recovered: %v", r)
			}
		}()
		_ = sess.Run(func() error {
			if err := insight.Set(acct, "Balance", 45); err != nil {
				return err
			}
			if _, err := insight.Call(acct, "Get"); err != nil {
				return err
			}
			if err := insight.Clear(acct, "Flags"); err != nil {
				return err
			}
			// Withdrawing more than the balance panics; the session
			// prints the pending call chain on the way out.
			_, err := insight.Call(acct, "MustWithdraw", 1000)
			return err
		})
	}()
	c.summarize(globals, sess)
}

// scenarioInstances contrasts a type-wide session with one pinned to a
// single instance.
func (c *DemoCmd) scenarioInstances(globals *Globals) {
	fmt.Fprintln(globals.Stdout, "== every instance vs one instance ==")
	a := demo.NewAccount("a", 10)
	b := demo.NewAccount("b", 20)

	fmt.Fprintln(globals.Stdout, "all Accounts:")
	whole := insight.New(insight.Type[*demo.Account](), c.sessionOptions(globals)...)
	_ = whole.Run(func() error {
		if _, err := insight.Get(a, "Balance"); err != nil {
			return err
		}
		_, err := insight.Get(b, "Balance")
		return err
	})
	c.summarize(globals, whole)

	fmt.Fprintln(globals.Stdout, "only Account(a):")
	one := insight.New(a, c.sessionOptions(globals)...)
	_ = one.Run(func() error {
		if _, err := insight.Get(a, "Balance"); err != nil {
			return err
		}
		_, err := insight.Get(b, "Balance")
		return err
	})
	c.summarize(globals, one)
}

// scenarioEscape captures a bound method inside the scope: it logs
// while the scope lasts and keeps working, silently, after.
func (c *DemoCmd) scenarioEscape(globals *Globals) {
	fmt.Fprintln(globals.Stdout, "== escaped method reference ==")
	acct := demo.NewAccount("main", 100)

	before, err := insight.Get(acct, "Get")
	if err != nil {
		globals.Debug("demo setup failed: %v", err)
		return
	}
	outside := before.(*insight.Method)

	var inside *insight.Method
	sess := insight.New(insight.Type[*demo.Account](), c.sessionOptions(globals)...)
	_ = sess.Run(func() error {
		v, err := insight.Get(acct, "Get")
		if err != nil {
			return err
		}
		inside = v.(*insight.Method)
		if _, err := outside.Call(); err != nil { // captured pre-scope: silent
			return err
		}
		_, err = inside.Call()
		return err
	})
	if inside != nil {
		if _, err := inside.Call(); err == nil {
			fmt.Fprintln(globals.Stdout, "(the call above printed nothing: scope is closed)")
		}
	}
	c.summarize(globals, sess)
}

// scenarioMethods shows method-access logging next to plain call
// logging.
func (c *DemoCmd) scenarioMethods(globals *Globals) {
	fmt.Fprintln(globals.Stdout, "== method access visibility ==")
	acct := demo.NewAccount("main", 7)

	fmt.Fprintln(globals.Stdout, "calls only:")
	quiet := insight.New(insight.Type[*demo.Account](), c.sessionOptions(globals)...)
	_ = quiet.Run(func() error {
		_, err := insight.Call(acct, "Get")
		return err
	})
	c.summarize(globals, quiet)

	fmt.Fprintln(globals.Stdout, "access and calls:")
	opts := append(c.sessionOptions(globals), insight.WithMethodAccess(true))
	loud := insight.New(insight.Type[*demo.Account](), opts...)
	_ = loud.Run(func() error {
		_, err := insight.Call(acct, "Get")
		return err
	})
	c.summarize(globals, loud)
}

// summarize renders the per-category event counts for a finished
// session.
func (c *DemoCmd) summarize(globals *Globals, sess *insight.Session) {
	if !c.Summary {
		return
	}
	st := sess.Stats()
	table := tablewriter.NewTable(globals.Stdout)
	table.Header("Category", "Events")
	rows := [][]string{
		{"reads", strconv.Itoa(st.Reads)},
		{"writes", strconv.Itoa(st.Writes)},
		{"clears", strconv.Itoa(st.Clears)},
		{"calls", strconv.Itoa(st.Calls)},
		{"method accesses", strconv.Itoa(st.MethodAccesses)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			globals.Debug("summary row failed: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		globals.Debug("summary render failed: %v", err)
	}
}
