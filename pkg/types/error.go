package types

// ConstError is an error whose value is a compile-time constant, so it can be
// declared with `const` and matched with `errors.Is`.
type ConstError string

func (err ConstError) Error() string { return string(err) }
