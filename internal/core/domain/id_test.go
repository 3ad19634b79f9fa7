package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordID_Deterministic(t *testing.T) {
	a := RecordID("proj", "src/auth.ts")
	b := RecordID("proj", "src/auth.ts")
	assert.Equal(t, a, b)
}

func TestRecordID_DistinctInputs(t *testing.T) {
	base := RecordID("proj", "src/auth.ts")

	assert.NotEqual(t, base, RecordID("proj", "src/main.ts"))
	assert.NotEqual(t, base, RecordID("other", "src/auth.ts"))

	// The separator keeps (ab, c) and (a, bc) apart.
	assert.NotEqual(t, RecordID("ab", "c"), RecordID("a", "bc"))
}

func TestRecordID_Format(t *testing.T) {
	id := RecordID("proj", "src/auth.ts")

	prefix, hash, found := strings.Cut(id, "_")
	assert.True(t, found)
	assert.Equal(t, "proj", prefix)
	assert.Len(t, hash, 16)
}

func TestRecordID_LongProjectPrefix(t *testing.T) {
	id := RecordID("a-very-long-project-identifier", "main.go")
	assert.True(t, strings.HasPrefix(id, "a-very-lon_"))
}
