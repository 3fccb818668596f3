package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"42", 42},
		{"3.5", 3.5},
		{"2+3", 5},
		{"10 - 4", 6},
		{"6*7", 42},
		{"9/2", 4.5},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"-5", -5},
		{"10 - -2", 12},
		{"(12 * 4) + (3 * 8) - 1", 71},
		{"100 / (2 + 3) / 2", 10},
	}

	for _, tc := range cases {
		got, err := Eval(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestEvalErrors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"2+",
		"(2+3",
		"2 ** 3",
		"abc",
		"1/0",
		"2 + x",
		"1;import",
	}

	for _, input := range cases {
		_, err := Eval(input)
		assert.Error(t, err, input)
	}
}
