package dbx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "generated", id: uuid.NewString(), want: true},
		{name: "upper case", id: "0E6F7A3C-1B2D-4C5E-8F90-A1B2C3D4E5F6", want: true},
		{name: "empty", id: "", want: false},
		{name: "word", id: "abc", want: false},
		{name: "braces", id: "{0e6f7a3c-1b2d-4c5e-8f90-a1b2c3d4e5f6}", want: false},
		{name: "urn", id: "urn:uuid:0e6f7a3c-1b2d-4c5e-8f90-a1b2c3d4e5f6", want: false},
		{name: "no dashes", id: "0e6f7a3c1b2d4c5e8f90a1b2c3d4e5f6", want: false},
		{name: "bad hex", id: "0e6f7a3c-1b2d-4c5e-8f90-a1b2c3d4e5fz", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidID(tt.id))
		})
	}
}
