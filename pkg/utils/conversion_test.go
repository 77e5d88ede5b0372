package utils

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableString(t *testing.T) {
	assert.Nil(t, NullableString(sql.NullString{}))

	p := NullableString(sql.NullString{String: "tech-1", Valid: true})
	require.NotNil(t, p)
	assert.Equal(t, "tech-1", *p)

	// Valid empty string is still a value, not NULL
	p = NullableString(sql.NullString{String: "", Valid: true})
	require.NotNil(t, p)
	assert.Equal(t, "", *p)
}

func TestNullableTime(t *testing.T) {
	assert.Nil(t, NullableTime(sql.NullTime{}))

	now := time.Now()
	p := NullableTime(sql.NullTime{Time: now, Valid: true})
	require.NotNil(t, p)
	assert.True(t, p.Equal(now))
}

func TestStringOrEmpty(t *testing.T) {
	assert.Equal(t, "", StringOrEmpty(nil))

	s := "WO-00042"
	assert.Equal(t, "WO-00042", StringOrEmpty(&s))
}
