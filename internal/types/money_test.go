package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney_String(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{Won(992000), "992,000 KRW"},
		{Won(1142000), "1,142,000 KRW"},
		{Won(500), "500 KRW"},
		{Won(0), "0 KRW"},
		{Won(-150000), "-150,000 KRW"},
		{Money{Amount: 1000}, "1,000 KRW"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.m.String())
	}
}
