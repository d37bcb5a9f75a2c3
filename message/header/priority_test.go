package header_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/zostay/go-mailparse/message/header"
)

func TestParsePriority(t *testing.T) {
	t.Parallel()

	cases := map[string]header.PriorityLevel{
		"1 (Highest)": header.PriorityHigh,
		"2":           header.PriorityHigh,
		"0":           header.PriorityHigh,
		"3":           header.PriorityNormal,
		"3 (Normal)":  header.PriorityNormal,
		"5 (Lowest)":  header.PriorityLow,
		"High":        header.PriorityHigh,
		"urgent":      header.PriorityHigh,
		"Non-Urgent":  header.PriorityLow,
		" low ":       header.PriorityLow,
		"normal":      header.PriorityNormal,
		"whatever":    header.PriorityNormal,
		"":            header.PriorityNormal,
	}

	for in, want := range cases {
		assert.Equal(t, want, header.ParsePriority(in), "priority of %q", in)
	}
}

func TestParsePriority_Total(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		p := header.ParsePriority(rapid.String().Draw(t, "body"))
		assert.Contains(t, []header.PriorityLevel{
			header.PriorityLow,
			header.PriorityNormal,
			header.PriorityHigh,
		}, p)
	})
}
