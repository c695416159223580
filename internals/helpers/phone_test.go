package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "local with zero", in: "0712345678", want: "+254712345678"},
		{name: "international no plus", in: "254712345678", want: "+254712345678"},
		{name: "international with plus", in: "+254712345678", want: "+254712345678"},
		{name: "subscriber only", in: "712345678", want: "+254712345678"},
		{name: "spaced", in: "0712 345 678", want: "+254712345678"},
		{name: "dashed", in: "+254-712-345-678", want: "+254712345678"},
		{name: "letters", in: "abcdefg", wantErr: true},
		{name: "plus in middle", in: "123+456", wantErr: true},
		{name: "letters after prefix", in: "+254abc123", wantErr: true},
		{name: "too short", in: "07123", wantErr: true},
		{name: "too long", in: "07123456789", wantErr: true},
		{name: "empty", in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in, "254")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
