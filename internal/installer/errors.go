package installer

// alreadyInProgressError rejects Begin while another run is active.
type alreadyInProgressError struct{}

func (alreadyInProgressError) Error() string { return "Installation already in progress" }

// IsAlreadyInProgress reports whether err rejected a run because one is active (409).
func IsAlreadyInProgress(err error) bool {
	_, ok := err.(alreadyInProgressError)
	return ok
}

// noComponentsSelectedError rejects a request with no component flag set.
type noComponentsSelectedError struct{}

func (noComponentsSelectedError) Error() string { return "No components selected" }

// IsNoComponentsSelected reports whether err rejected an empty request (400).
func IsNoComponentsSelected(err error) bool {
	_, ok := err.(noComponentsSelectedError)
	return ok
}
