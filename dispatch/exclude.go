package dispatch

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// CompileExclude compiles an expr-lang expression into an exclusion
// predicate. The action is bound to the variable `action`:
//
//	action == "refresh"
//	action.Kind in ["scroll", "hover"]
//
// An expression that fails at run time, or yields anything but true, does not
// exclude the action.
func CompileExclude[A any](expression string) (func(A) bool, error) {
	if expression == "" {
		return nil, fmt.Errorf("exclude expression must not be empty")
	}

	program, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile exclude expression %q: %w", expression, err)
	}

	return func(action A) bool {
		out, err := expr.Run(program, map[string]any{"action": action})
		if err != nil {
			return false
		}
		excluded, _ := out.(bool)
		return excluded
	}, nil
}
