package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAddable(t *testing.T) {
	tests := []struct {
		name      string
		available int64
		inCart    int64
		requested int64
		want      Decision
	}{
		{
			name:      "accepts when stock covers the request",
			available: 10, inCart: 0, requested: 3,
			want: Decision{Accepted: true},
		},
		{
			name:      "accepts up to the exact limit",
			available: 5, inCart: 3, requested: 2,
			want: Decision{Accepted: true},
		},
		{
			name:      "zero stock is out of stock",
			available: 0, inCart: 0, requested: 1,
			want: Decision{Reason: ReasonOutOfStock},
		},
		{
			name:      "negative stock is out of stock",
			available: -2, inCart: 0, requested: 1,
			want: Decision{Reason: ReasonOutOfStock},
		},
		{
			name:      "over the limit reports the remaining headroom",
			available: 5, inCart: 3, requested: 3,
			want: Decision{Reason: ReasonStockLimitReached, ClampedQty: 2},
		},
		{
			name:      "cart already full leaves zero headroom",
			available: 4, inCart: 4, requested: 1,
			want: Decision{Reason: ReasonStockLimitReached, ClampedQty: 0},
		},
		{
			name:      "out of stock wins over limit when both apply",
			available: 0, inCart: 2, requested: 1,
			want: Decision{Reason: ReasonOutOfStock},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAddable(tt.available, tt.inCart, tt.requested))
		})
	}
}
