package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BailaoHugo/gestao-facturas/constants"
)

func TestAllowed(t *testing.T) {
	exts := constants.AllowedExtensions
	assert.True(t, allowed("/in/fatura.pdf", exts))
	assert.True(t, allowed("/in/recibo.JPG", exts))
	assert.False(t, allowed("/in/notas.txt", exts))
	assert.False(t, allowed("/in/.fatura.pdf", exts))
	assert.False(t, allowed("/in/sem-extensao", exts))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/uploads/.DS_Store"))
	assert.True(t, IsHidden(".git"))
	assert.False(t, IsHidden("/uploads/fatura.pdf"))
}
