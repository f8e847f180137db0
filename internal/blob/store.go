// Package blob stores uploaded binary objects and serves their public
// locations.
package blob

import "context"

// Store writes objects under caller-chosen keys and reports the URL
// they can be fetched from.
type Store interface {
	// Upload writes an object. Re-uploading an existing key replaces
	// its content.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)

	// PublicURL reports the fetch location for a key without writing.
	PublicURL(key string) string
}
