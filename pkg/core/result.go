package core

// Result is the outcome of every user-triggered command.
type Result struct {
	Success bool   `json:"success"`
	Err     *Error `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps data in a successful result.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail wraps err in a failed result.
func Fail(err *Error) Result {
	return Result{Success: false, Err: err}
}

// Error returns the failure as a Go error, or nil on success.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// Unit returns Data as a Unit when the command produced one.
func (r Result) Unit() (Unit, bool) {
	u, ok := r.Data.(Unit)
	return u, ok
}
