package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryActionHasBindingAndKey(t *testing.T) {
	for _, name := range Ordered {
		b, ok := GlobalkeyBindings[name]
		assert.True(t, ok, "action %d has no binding", name)
		assert.NotEmpty(t, b.Help().Key)

		for _, k := range b.Keys() {
			got, ok := Lookup(k)
			assert.True(t, ok, "key %q is not mapped", k)
			assert.Equal(t, name, got)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("z")
	assert.False(t, ok)
}
