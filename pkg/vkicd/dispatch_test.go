package vkicd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchCellWordsCarriesLoaderMagicAndLocalID(t *testing.T) {
	cell := DispatchCellWords(0x2001)
	assert.Equal(t, ICDLoaderMagic, cell[0])
	assert.Equal(t, uint64(0x2001), cell[1])
}

func TestLocalIDFromCellSurvivesLoaderOverwritingFirstWord(t *testing.T) {
	cell := DispatchCellWords(0x2042)
	// The Vulkan loader is only contractually permitted to overwrite the
	// first word with its own dispatch table pointer.
	cell[0] = 0xDEADBEEF
	assert.Equal(t, uint64(0x2042), LocalIDFromCell(cell))
}
