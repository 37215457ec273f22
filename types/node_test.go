package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeAffectedPaths(t *testing.T) {
	n := &Node{
		Path: "/a",
		Modified: Modified{
			Epoch: Epoch{Version: []string{"/x_001", "/y_abcdef", "noUnderscore"}},
		},
	}
	assert.Equal(t, []string{"/x", "/y", "noUnderscore"}, n.AffectedPaths())
}

func TestNilNodeAffectedPaths(t *testing.T) {
	var n *Node
	assert.Nil(t, n.AffectedPaths())
}

func TestNodeAffectedPathsEmptyEpoch(t *testing.T) {
	n := &Node{Path: "/a"}
	assert.Empty(t, n.AffectedPaths())
}
