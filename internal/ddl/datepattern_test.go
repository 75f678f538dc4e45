package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrftimePattern(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr string
	}{
		{in: "MM/dd/yyyy", want: "%m/%d/%Y"},
		{in: "yyyy-MM-dd", want: "%Y-%m-%d"},
		{in: "M/d/yy", want: "%-m/%-d/%y"},
		{in: "dd MMM yyyy", want: "%d %b %Y"},
		{in: "yyyy-MM-dd HH:mm:ss", want: "%Y-%m-%d %H:%M:%S"},
		{in: "yyyy'T'HH", want: "%YT%H"},
		{in: "dd''MM", want: "%d'%m"},
		{in: "100% yyyy", want: "100%% %Y"},
		{in: "", wantErr: "required"},
		{in: "yyyyy", wantErr: "unsupported"},
		{in: "QQ yyyy", wantErr: "unsupported"},
		{in: "yyyy'T", wantErr: "unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := StrftimePattern(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
