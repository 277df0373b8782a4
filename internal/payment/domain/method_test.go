package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodLabels(t *testing.T) {
	want := map[Method]string{
		MethodCash:     "Tunai",
		MethodTransfer: "Transfer Bank",
		MethodQRIS:     "QRIS",
		MethodOther:    "Lainnya",
	}
	for _, m := range Methods {
		assert.Equal(t, want[m], m.Label())
		assert.NoError(t, m.Validate())
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" QRIS ")
	require.NoError(t, err)
	assert.Equal(t, MethodQRIS, m)

	m, err = ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodCash, m)

	_, err = ParseMethod("cheque")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}
