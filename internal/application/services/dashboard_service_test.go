package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgeBucket(t *testing.T) {
	assert.Equal(t, "under_24h", ageBucket(0))
	assert.Equal(t, "under_24h", ageBucket(23.9))
	assert.Equal(t, "1_to_7d", ageBucket(24))
	assert.Equal(t, "1_to_7d", ageBucket(100))
	assert.Equal(t, "over_7d", ageBucket(24*7))
	assert.Equal(t, "over_7d", ageBucket(5000))
}
