package auth

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLogin(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "from flag", flag: "alice", want: "alice"},
		{name: "from prompt", input: "  bob \n", want: "bob"},
		{name: "no trailing newline", input: "carol", want: "carol"},
		{name: "empty", input: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := readLogin(bufio.NewReader(strings.NewReader(tt.input)), &out, tt.flag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
