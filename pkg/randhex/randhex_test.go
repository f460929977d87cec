package randhex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/ngendika/pkg/randhex"
)

func TestString(t *testing.T) {
	s, err := randhex.String(16)
	require.NoError(t, err)
	assert.Len(t, s, 16)

	s2, err := randhex.String(16)
	require.NoError(t, err)
	assert.NotEqual(t, s, s2)
}
