package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blitss-oss/mixengine/media"
)

func TestEOSReasoner_AnyOfEndsWhenWatchedInputLeaves(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAnyOf, Inputs: []media.InputID{"a", "b"}}, []media.InputID{"a", "b", "c"})
	assert.False(t, r.hasEnded())
	r.onInputRemoved("c")
	assert.False(t, r.hasEnded(), "c is not in the watched set")
	r.onInputRemoved("a")
	assert.True(t, r.hasEnded())
}

func TestEOSReasoner_AllOfEndsWhenAllWatchedLeave(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAllOf, Inputs: []media.InputID{"a", "b"}}, []media.InputID{"a", "b"})
	r.onInputRemoved("a")
	assert.False(t, r.hasEnded())
	r.onInputRemoved("b")
	assert.True(t, r.hasEnded())
}

func TestEOSReasoner_AnyInputEndsOnFirstRemoval(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAnyInput}, []media.InputID{"a", "b"})
	assert.False(t, r.hasEnded())
	r.onInputRemoved("a")
	assert.True(t, r.hasEnded())
}

func TestEOSReasoner_AllInputsEndsWhenQueueEmpties(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAllInputs}, []media.InputID{"a", "b"})
	r.onInputRemoved("a")
	assert.False(t, r.hasEnded())
	r.onInputRemoved("b")
	assert.True(t, r.hasEnded())
}

func TestEOSReasoner_AllInputsStartsEndedWithNoInputs(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAllInputs}, nil)
	assert.True(t, r.hasEnded())
}

func TestEOSReasoner_NeverNeverEnds(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondNever}, []media.InputID{"a"})
	r.onInputRemoved("a")
	assert.False(t, r.hasEnded())
}

func TestEOSReasoner_ShouldSendEOSFiresExactlyOnce(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAllInputs}, []media.InputID{"a"})
	assert.False(t, r.shouldSendEOS())
	r.onInputRemoved("a")
	assert.True(t, r.shouldSendEOS())
	assert.False(t, r.shouldSendEOS(), "a second call must not re-fire")
	assert.False(t, r.shouldSendEOS())
}

func TestEOSReasoner_ReconnectAfterAnyInputStaysEnded(t *testing.T) {
	r := newEOSReasoner(EOSPolicy{Condition: CondAnyInput}, []media.InputID{"a", "b"})
	r.onInputRemoved("a")
	assert.True(t, r.hasEnded())
	r.onInputAdded("c")
	assert.True(t, r.hasEnded(), "condition is monotonic, a later add must not un-end it")
}
