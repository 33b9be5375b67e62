package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_OrderedAndChecksummed(t *testing.T) {
	all, err := Discover()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Filename, all[i].Filename)
	}
	for _, m := range all {
		assert.Len(t, m.Checksum, 64, m.Filename)
		assert.NotEmpty(t, m.SQL, m.Filename)
	}
	assert.Equal(t, "001", all[0].Version)
}

func TestExtractVersion(t *testing.T) {
	v, err := extractVersion("003_add_index.sql")
	require.NoError(t, err)
	assert.Equal(t, "003", v)

	_, err = extractVersion("noversion.sql")
	assert.Error(t, err)
}
