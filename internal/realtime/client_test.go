package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineUsesWriteWait(t *testing.T) {
	before := time.Now()
	got := deadline()
	after := time.Now()

	assert.False(t, got.Before(before.Add(writeWait)))
	assert.False(t, got.After(after.Add(writeWait)))
}
