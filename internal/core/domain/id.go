package domain

import (
	"fmt"
	"hash/fnv"
)

// RecordID derives the deterministic identifier for a SourceRecord from its
// (projectID, filePath) identity. The same inputs always produce the same ID,
// across calls and across processes.
//
// The path component is a full FNV-64a hash, so collisions within a project
// require two paths hashing to the same 64-bit value. A project prefix keeps
// IDs readable and distinct across projects.
func RecordID(projectID, filePath string) string {
	h := fnv.New64a()
	h.Write([]byte(projectID))
	h.Write([]byte{0})
	h.Write([]byte(filePath))

	prefix := projectID
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%016x", prefix, h.Sum64())
}
