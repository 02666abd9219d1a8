package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web dev", "c++", "node.js"}, NormalizeTags([]string{" Go ", "go", "Web   Dev", "", "C++", "Node.js", "!!"}))
	assert.Equal(t, []string{}, NormalizeTags(nil))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"go", "rust"}, SplitTags("Go, rust ,,go"))
	assert.Equal(t, []string{}, SplitTags("  "))
}
