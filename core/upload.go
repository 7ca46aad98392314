package core

import "mime/multipart"

// FileStore keeps uploaded files and tells where they are served from.
type FileStore interface {
	// Save stores the file and returns its public URL.
	// A file that is too big or of a disallowed type is reported as a *ValidationError on field.
	Save(field string, fh *multipart.FileHeader) (url string, err error)
	// Remove deletes a file returned by Save. Removing a missing file is not an error.
	Remove(url string) error
}
