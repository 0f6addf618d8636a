package loaders

import "fmt"

// LoadError reports a malformed scene file. Line is 1-based; 0 means the
// error is not tied to a single line (binary PLY bodies, missing files).
type LoadError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
