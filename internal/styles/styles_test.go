package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStylesKeepText(t *testing.T) {
	assert.Contains(t, ERROR("config invalid"), "config invalid")
	assert.Contains(t, WARNING("2 config problems"), "2 config problems")
	assert.Contains(t, LOG("details"), "details")
}
