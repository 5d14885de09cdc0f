package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserMessage(t *testing.T) {
	assert.Equal(t,
		"ORIGINAL POST CONTEXT:\nMy post\n\nUSER COMMENT TO REPLY TO:\nNice!",
		BuildUserMessage("My post", "Nice!"))
	assert.Equal(t,
		"ORIGINAL POST CONTEXT:\n\n\nUSER COMMENT TO REPLY TO:\nNice!",
		BuildUserMessage("", "Nice!"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc...", preview("abc", 60))
	assert.Equal(t, "ab...", preview("abcdef", 2))
	assert.Equal(t, "👍🏽x...", preview("👍🏽xyz", 2))
}

func TestLength(t *testing.T) {
	assert.Equal(t, 0, length(" \n "))
	assert.Equal(t, 5, length("  hello\n"))
	assert.Equal(t, 1, length("👍🏽"))
}
