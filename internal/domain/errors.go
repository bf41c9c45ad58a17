package domain

import "fmt"

// LoadError marks an index or Markdown resource that could not be fetched.
// Fatal on the initial index load, local to one row everywhere else.
type LoadError struct {
	Resource string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// UploadError marks a write-back rejected by the backend. The in-memory
// state must be left unchanged when one occurs.
type UploadError struct {
	Resource string
	Status   int
	Err      error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upload of %s rejected with status %d", e.Resource, e.Status)
	}
	return fmt.Sprintf("failed to upload %s: %v", e.Resource, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ValidationError blocks an action before any mutation or submission occurs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError is returned on a failed login or password change. Its message
// never distinguishes a missing credential from a wrong password.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "invalid username or password"
}
