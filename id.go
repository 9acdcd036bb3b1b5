package requeue

import "github.com/groundwire/requeue/id"

// ID is the primary identifier type for all requeue entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
