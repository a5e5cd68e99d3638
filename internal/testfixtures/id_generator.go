package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out "<prefix>-1", "<prefix>-2", ... for session ids, tokens and
// form ids so assertions can name them.
type IDGenerator struct {
	prefix string
	seq    atomic.Uint64
}

// NewIDGenerator defaults the prefix to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.seq.Add(1), 10)
}

// Token matches identity.WithTokenGenerator and never fails.
func (g *IDGenerator) Token() (string, error) {
	return g.Next(), nil
}

// Reset makes the next value "<prefix>-1" again.
func (g *IDGenerator) Reset() {
	g.seq.Store(0)
}
