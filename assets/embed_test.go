package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		ddl, err := Schema(dialect)
		require.NoError(t, err, dialect)
		assert.True(t, strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS cat_game"), dialect)
	}

	_, err := Schema("mysql")
	assert.Error(t, err)
}
