package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPassesRecordsThroughAModule(t *testing.T) {
	buf := NewBuffer(4, false)

	go func() {
		buf.Feed("r1")
		buf.Feed("r2")
		buf.CloseInput()
	}()

	// A module is a loop over NextInput that pushes each result
	// downstream.
	go func() {
		for {
			rec, ok := buf.NextInput()
			if !ok {
				break
			}
			buf.PutOutput(rec)
		}
		buf.CloseOutput()
	}()

	var got []Record
	for rec := range buf.Output() {
		got = append(got, rec)
	}
	require.Len(t, got, 2)
	assert.Equal(t, []Record{"r1", "r2"}, got)
}

func TestBufferEndOfStream(t *testing.T) {
	buf := NewBuffer(1, true)
	buf.CloseInput()

	_, ok := buf.NextInput()
	assert.False(t, ok)
	assert.True(t, buf.Verbose())
}
