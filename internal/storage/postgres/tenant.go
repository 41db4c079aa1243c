package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
)

// TenantFilter returns the company every tenant query must be limited to.
// ok is false outside an authenticated context with a company, such as seeding
// and background jobs, where no filter applies.
func TenantFilter(ctx context.Context) (companyID int, ok bool, err error) {
	user := auth.FromContext(ctx)
	if !user.IsAuthenticated() {
		return 0, false, nil
	}

	companyID, err = user.CompanyID(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	return companyID, companyID > 0, nil
}

// Where accumulates AND-ed predicates. Clauses use ? for arguments; they are
// numbered $1.. in the order added.
type Where struct {
	clauses []string
	args    []any
}

// NewWhere starts a predicate list after leading arguments, such as the SET
// values of an UPDATE, so clause placeholders continue from len(leading)+1.
func NewWhere(leading ...any) *Where {
	return &Where{args: append([]any(nil), leading...)}
}

func (w *Where) Add(clause string, args ...any) *Where {
	var b strings.Builder
	argIdx := 0
	for _, r := range clause {
		if r == '?' && argIdx < len(args) {
			w.args = append(w.args, args[argIdx])
			argIdx++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(r)
	}
	w.clauses = append(w.clauses, b.String())
	return w
}

// Tenant adds column = company when TenantFilter applies.
func (w *Where) Tenant(ctx context.Context, column string) error {
	companyID, ok, err := TenantFilter(ctx)
	if err != nil {
		return err
	}
	if ok {
		w.Add(column+" = ?", companyID)
	}
	return nil
}

// Arg appends an argument without a clause and returns its placeholder,
// for LIMIT/OFFSET and the like.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// SQL renders "WHERE ..." or "" when there are no predicates.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}
