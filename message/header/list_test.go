package header_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zostay/go-mailparse/message/header"
)

func TestParseListEntry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, &header.ListEntry{
		URL:  "http://example.com/unsubscribe",
		Mail: "unsubscribe@example.com",
	}, header.ParseListEntry("<mailto:unsubscribe@example.com>, <http://example.com/unsubscribe>", nil))

	assert.Equal(t, &header.ListEntry{
		Name: "Some List",
		ID:   "list.example.com",
	}, header.ParseListEntry("Some List <list.example.com>", nil))

	assert.Equal(t, &header.ListEntry{
		Mail: "owner@example.com",
	}, header.ParseListEntry("<owner@example.com>", nil))
}
