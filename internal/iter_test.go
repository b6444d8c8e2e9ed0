package internal

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	a := DefineSeq("A", "1", "B", "2")
	b := DefineSeq("C", "3")

	var keys []string
	for key := range IterSeq2Concat(a, nil, b) {
		keys = append(keys, key)
	}
	assert.Equal([]string{"A", "B", "C"}, keys)

	all := maps.Collect(IterSeq2Concat(a, b))
	assert.Equal(map[string]string{"A": "1", "B": "2", "C": "3"}, all)

	// Early stop.
	count := 0
	for range IterSeq2Concat(a, b) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}

func TestDefineSeqOdd(t *testing.T) {
	assert := assert.New(t)

	all := maps.Collect(DefineSeq("A", "1", "dangling"))
	assert.Equal(map[string]string{"A": "1"}, all)
}
