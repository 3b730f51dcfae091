package ports

import "errors"

// Failures shared by every store adapter. The texts match the identity and
// document providers so the error classifier treats all adapters alike.
var (
	ErrUserNotFound       = errors.New("User with the requested ID could not be found.")
	ErrUserAlreadyExists  = errors.New("A user with the same id, email, or phone already exists in this project.")
	ErrInvalidCredentials = errors.New("Invalid credentials. Please check the email and password.")
	ErrMissingScope       = errors.New("User (role: guests) missing scope (account)")
	ErrDocumentNotFound   = errors.New("Document with the requested ID could not be found.")
	ErrDocumentExists     = errors.New("Document with the requested ID already exists.")
	ErrNotAuthorized      = errors.New("The current user is not authorized to perform the requested action.")
)
