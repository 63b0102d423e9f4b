package insight

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"
)

// formatValue renders a value for a trace line.
func formatValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", v)
}

// formatCall renders "<repr>.<name>(<args>)" with the arguments the
// caller actually passed, positionally. Go reflection exposes neither
// parameter names nor defaults, so there is no keyword form.
func formatCall(repr, name string, args []any) string {
	rendered := lo.Map(args, func(a any, _ int) string { return formatValue(a) })
	return fmt.Sprintf("%s.%s(%s)", repr, name, strings.Join(rendered, ", "))
}

// formatResults renders a method's return values: an empty tuple, one
// bare value, or a parenthesized list.
func formatResults(out []any) string {
	switch len(out) {
	case 0:
		return "()"
	case 1:
		return formatValue(out[0])
	}
	rendered := lo.Map(out, func(v any, _ int) string { return formatValue(v) })
	return "(" + strings.Join(rendered, ", ") + ")"
}

// typeName names a type without pointer markers, for messages.
func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
