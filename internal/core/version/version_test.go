package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_Defaults(t *testing.T) {
	b := Info()
	assert.Equal(t, "hloc-find", b.Service)
	assert.Equal(t, "dev", b.Version)
	assert.Equal(t, "hloc-find dev (none, unknown)", b.String())
}
