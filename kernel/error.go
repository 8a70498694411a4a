package kernel

// Error describes a kernel error. Kernel errors are declared as global
// pointers to Error values because no allocator is available while the early
// hardware tables are being set up, which rules out errors.New.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
