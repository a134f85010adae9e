package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	glora "github.com/NV4RE/glora-rx"
)

func TestRunRejectsOutOfRangeFlags(t *testing.T) {
	opts := glora.DefaultOptions()
	cases := []struct {
		cr, sf, sync uint
	}{
		{5, 263, 0x12}, // would wrap to SF7 as a byte
		{5, 6, 0x12},
		{5, 13, 0x12},
		{4, 7, 0x12},
		{9, 7, 0x12},
		{260, 7, 0x12},
		{5, 7, 0x112},
	}
	for _, c := range cases {
		err := run(opts, 434000000, 125000, c.cr, c.sf, false, c.sync, false)
		assert.Error(t, err, "%+v", c)
	}
}
