// Package storage is the artifact store boundary: persist bytes under a
// path, get a retrievable URL back.
//
// Two logical namespaces keep sample renders apart from billed output:
// sample/<eventID>/... and uploads/<eventID>/... . Template assets are
// staged by the upload flow under the uploads namespace and fetched from
// there by the pipeline.
package storage

import "context"

// Store persists artifacts and resolves them to URLs.
type Store interface {
	// Put stores data under path and returns a retrievable URL.
	Put(ctx context.Context, data []byte, path string) (string, error)

	// Get fetches the bytes stored under path.
	Get(ctx context.Context, path string) ([]byte, error)
}

// UploadPath returns the billed-output path for a file within an event.
func UploadPath(eventID, filename string) string {
	return "uploads/" + eventID + "/" + filename
}

// SamplePath returns the sample-output path for a file within an event.
func SamplePath(eventID, filename string) string {
	return "sample/" + eventID + "/" + filename
}

// OutputPath selects the namespace by batch mode.
func OutputPath(eventID, filename string, sample bool) string {
	if sample {
		return SamplePath(eventID, filename)
	}
	return UploadPath(eventID, filename)
}
