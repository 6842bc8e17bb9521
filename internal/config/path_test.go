package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("PENEIRA_TEST_DIR", "/var/lib/peneira")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "absolute untouched", in: "/tmp/peneira.db", want: "/tmp/peneira.db"},
		{name: "relative untouched", in: "data/peneira.db", want: "data/peneira.db"},
		{name: "bare tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/catalog/peneira.db", want: filepath.Join(home, "catalog", "peneira.db")},
		{name: "env var", in: "$PENEIRA_TEST_DIR/peneira.db", want: "/var/lib/peneira/peneira.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
