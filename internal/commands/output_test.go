package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Zeta  string   `json:"zeta"`
	Alpha int      `json:"alpha"`
	Tags  []string `json:"tags"`
}

func TestRender(t *testing.T) {
	v := sample{Zeta: "z", Alpha: 1, Tags: []string{"a", "b"}}
	tableErr := errors.New("table called")

	tests := []struct {
		format  string
		want    string
		wantErr error
	}{
		{"json", "{\n  \"zeta\": \"z\",\n  \"alpha\": 1,\n  \"tags\": [\n    \"a\",\n    \"b\"\n  ]\n}\n", nil},
		{"yaml", "zeta: z\nalpha: 1\ntags:\n    - a\n    - b\n", nil},
		{"table", "", tableErr},
		{"", "", tableErr},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := render(&buf, tt.format, v, func() error { return tableErr })
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := render(&bytes.Buffer{}, "xml", sample{}, func() error { return nil })
	assert.ErrorContains(t, err, "unknown output format")
}
