package qr

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	dataURL, err := DataURL("MUSA1234")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(dataURL, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	require.NoError(t, err)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestDataURLEmptyInput(t *testing.T) {
	_, err := DataURL("")
	assert.Error(t, err)
}
