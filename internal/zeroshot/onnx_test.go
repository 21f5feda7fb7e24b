package zeroshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestONNXConfig_EntailmentIndex(t *testing.T) {
	index := func(i int) *int { return &i }

	tests := []struct {
		set  *int
		name string
		want int
	}{
		{name: "unset", set: nil, want: defaultEntailmentIndex},
		{name: "first", set: index(0), want: 0},
		{name: "middle", set: index(1), want: 1},
		{name: "last", set: index(2), want: 2},
		{name: "negative", set: index(-1), want: defaultEntailmentIndex},
		{name: "past the logits", set: index(3), want: defaultEntailmentIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ONNXConfig{EntailmentIndex: tt.set}.entailmentIndex())
		})
	}
}
