package session

// emptyNameError rejects Start without an artist name.
type emptyNameError struct{}

func (emptyNameError) Error() string { return "Artist name required" }

// IsEmptyName reports whether err rejected a blank artist name (400).
func IsEmptyName(err error) bool {
	_, ok := err.(emptyNameError)
	return ok
}

// invalidNameError rejects names that cannot be used as a single folder.
type invalidNameError struct{ name string }

func (e invalidNameError) Error() string { return "invalid artist name: " + e.name }

// IsInvalidName reports whether err rejected a name containing path elements (400).
func IsInvalidName(err error) bool {
	_, ok := err.(invalidNameError)
	return ok
}
