package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageAndKind(t *testing.T) {
	t.Parallel()

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		err := Structuralf("missing %s", "DTSTART")
		assert.Equal(t, "missing DTSTART", err.Error())
		assert.Equal(t, KindStructural, KindOf(err))
		assert.True(t, Is(err, KindStructural))
	})

	t.Run("wrapped", func(t *testing.T) {
		t.Parallel()
		cause := stderrs.New("disk full")
		err := Wrap(cause, KindSource, "write output")
		assert.Equal(t, "write output: disk full", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("context: %w", ZoneResolutionf("no zone"))
		assert.Equal(t, KindZoneResolution, KindOf(err))
	})

	t.Run("foreign error is unknown", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, KindUnknown, KindOf(stderrs.New("x")))
		assert.Equal(t, "unknown", KindOf(nil).String())
	})
}

func TestWithUID(t *testing.T) {
	t.Parallel()

	base := Configurationf("bad label")
	withUID := WithUID(base, "evt-1")

	e, ok := As(withUID)
	require.True(t, ok)
	assert.Equal(t, "evt-1", e.UID())
	assert.Equal(t, "bad label (uid=evt-1)", withUID.Error())

	// original untouched
	orig, _ := As(base)
	assert.Empty(t, orig.UID())

	// first UID wins
	again := WithUID(withUID, "evt-2")
	e2, _ := As(again)
	assert.Equal(t, "evt-1", e2.UID())

	assert.Nil(t, WithUID(nil, "x"))

	foreign := WithUID(stderrs.New("plain"), "evt-3")
	assert.Equal(t, KindUnknown, KindOf(foreign))
}
