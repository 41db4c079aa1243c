package apperr

// Result reports the outcome of an identity operation that can fail for
// several reasons at once, such as password policy checks.
type Result struct {
	Succeeded bool     `json:"succeeded"`
	Errors    []string `json:"errors"`
}

func Success() Result {
	return Result{Succeeded: true, Errors: []string{}}
}

func Failed(errs ...string) Result {
	return Result{Succeeded: false, Errors: errs}
}
