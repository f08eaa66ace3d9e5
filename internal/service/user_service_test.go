package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameDay(t *testing.T) {
	loc := time.UTC
	a := time.Date(2025, 3, 9, 1, 0, 0, 0, loc)
	b := time.Date(2025, 3, 9, 23, 59, 0, 0, loc)
	c := time.Date(2025, 3, 10, 0, 1, 0, 0, loc)

	assert.True(t, sameDay(a, b))
	assert.False(t, sameDay(b, c))
	assert.False(t, sameDay(a, a.AddDate(-1, 0, 0)))
}
