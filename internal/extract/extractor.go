// Package extract defines the vendor extractor capability interface and
// the registry that dispatches files to the right vendor implementation.
// Each timing-system family lives in its own subpackage.
package extract

import (
	"context"

	"github.com/TheMaksoo/karting/internal/core/domain"
)

// Extractor turns raw vendor report content into an intermediate session
// record. Implementations must never let an internal parse failure
// escape as a panic: any failure is returned as a nil record plus a
// diagnostic error, and the batch moves on to the next file.
type Extractor interface {
	// Tracks returns the canonical track names this extractor handles.
	Tracks() []string

	// Source returns the data source tag stamped onto rows it produces.
	Source() string

	// Extract parses one file's content. A nil record with a non-nil
	// error means the file could not be used (unidentifiable driver,
	// missing sections, undecodable body); the error explains why.
	Extract(ctx context.Context, content []byte, path, track string) (*domain.SessionRecord, error)
}
