package idgen_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
)

func TestUUIDGenerator(t *testing.T) {
	id := idgen.NewUUID("char").Generate()
	require.True(t, strings.HasPrefix(id, "char_"))

	_, err := uuid.Parse(strings.TrimPrefix(id, "char_"))
	assert.NoError(t, err)

	bare := idgen.NewUUID("").Generate()
	_, err = uuid.Parse(bare)
	assert.NoError(t, err)
}

func TestSequentialGenerator(t *testing.T) {
	gen := idgen.NewSequential("choice")
	assert.Equal(t, "choice_1", gen.Generate())
	assert.Equal(t, "choice_2", gen.Generate())

	assert.Equal(t, "1", idgen.NewSequential("").Generate())
}
