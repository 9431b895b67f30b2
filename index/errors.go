package index

import "github.com/pkg/errors"

// ErrCorrupt is returned when the bucket file disagrees with its own
// directory: an offset points past EOF, a record truncates, or a slab is
// missing its terminator.
var ErrCorrupt = errors.New("bucket file is corrupt")

// ErrNoNearestFound is returned by a query whose 3x3 neighborhood scan
// turns up no candidate edges.
var ErrNoNearestFound = errors.New("no nearest edge found")

// ErrAlreadyBuilt is returned by Writer.AddEdge or Writer.Build once the
// writer has already transitioned out of the Building state.
var ErrAlreadyBuilt = errors.New("writer has already been built")
