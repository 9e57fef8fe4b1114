package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("PAWHAVEN_TEST_PORT", " 9090 ")
	t.Setenv("PAWHAVEN_TEST_BLANK", "  ")

	assert.Equal(t, "9090", Get("PAWHAVEN_TEST_PORT", "8080"))
	assert.Equal(t, "8080", Get("PAWHAVEN_TEST_BLANK", "8080"))
	assert.Equal(t, "8080", Get("PAWHAVEN_TEST_UNSET", "8080"))
}

func TestFirstHonoursOrder(t *testing.T) {
	t.Setenv("PAWHAVEN_TEST_A", "")
	t.Setenv("PAWHAVEN_TEST_B", "b")
	t.Setenv("PAWHAVEN_TEST_C", "c")

	assert.Equal(t, "b", First("none", "PAWHAVEN_TEST_A", "PAWHAVEN_TEST_B", "PAWHAVEN_TEST_C"))
	assert.Equal(t, "none", First("none", "PAWHAVEN_TEST_A"))
}
