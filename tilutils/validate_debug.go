//go:build debug_tiler

package tilutils

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_tiler build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugAssert panics with the provided message if condition is false. This method no-ops unless the
// debug_tiler build tag is present.
func DebugAssert(condition bool, message string) {
	if !condition {
		panic(message)
	}
}
