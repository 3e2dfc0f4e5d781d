package listview

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/userdesk/userdesk/pkg/user"
)

// Filter is a compiled boolean expression evaluated against each user.
//
// The environment exposes id, name, lastName, fullName, avatar, school, phone,
// email and role as strings, e.g.
//
//	role == "Admin" && school contains "BDU"
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles expression. The expression must evaluate to a bool.
func CompileFilter(expression string) (*Filter, error) {
	program, err := expr.Compile(expression, expr.Env(filterEnv(user.User{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.source
}

// Match reports whether u satisfies the filter.
func (f *Filter) Match(u user.User) (bool, error) {
	out, err := expr.Run(f.program, filterEnv(u))
	if err != nil {
		return false, fmt.Errorf("eval filter %q: %w", f.source, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func filterEnv(u user.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID,
		"name":     u.Name,
		"lastName": u.LastName,
		"fullName": u.FullName(),
		"avatar":   u.Avatar,
		"school":   u.School,
		"phone":    u.Phone,
		"email":    u.Email,
		"role":     string(u.Role),
	}
}
