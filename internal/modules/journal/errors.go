package journal

import "errors"

// ErrEntryNotFound covers both "no such entry" and "not your entry";
// handlers must not let callers tell the two apart.
var ErrEntryNotFound = errors.New("entry not found")
