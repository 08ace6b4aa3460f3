package engine

import "github.com/blitss-oss/mixengine/media"

// EOSCondition names the policy an output uses to decide, from the set of
// currently connected inputs, whether it has ended (C10).
type EOSCondition int

const (
	// CondAnyOf ends once any input in Inputs has disconnected.
	CondAnyOf EOSCondition = iota
	// CondAllOf ends once every input in Inputs has disconnected.
	CondAllOf
	// CondAnyInput ends as soon as any input (from the whole queue) is removed.
	CondAnyInput
	// CondAllInputs ends once there are no connected inputs left at all.
	CondAllInputs
	// CondNever never ends on its own, so the output never gets an EOS;
	// UnregisterOutput stops delivery to it without sending one.
	CondNever
)

// EOSPolicy pairs a condition with the input set it watches (ignored by
// CondAnyInput, CondAllInputs, and CondNever).
type EOSPolicy struct {
	Condition EOSCondition
	Inputs    []media.InputID
}

// eosReasoner is the per-output, per-medium state machine described in
// C10: it watches which inputs are connected and fires exactly one EOS
// transition once its condition is met.
type eosReasoner struct {
	policy      EOSPolicy
	connected   map[media.InputID]struct{}
	anyRemoved  bool
	didEnd      bool
	didSendEOS  bool
}

func newEOSReasoner(policy EOSPolicy, initialInputs []media.InputID) *eosReasoner {
	r := &eosReasoner{
		policy:    policy,
		connected: make(map[media.InputID]struct{}, len(initialInputs)),
	}
	for _, id := range initialInputs {
		r.connected[id] = struct{}{}
	}
	r.recompute()
	return r
}

// onInputAdded records a newly registered input as connected.
func (r *eosReasoner) onInputAdded(id media.InputID) {
	r.connected[id] = struct{}{}
	r.recompute()
}

// onInputRemoved records an input leaving (unregistered or EOS'd).
func (r *eosReasoner) onInputRemoved(id media.InputID) {
	delete(r.connected, id)
	r.anyRemoved = true
	r.recompute()
}

func (r *eosReasoner) recompute() {
	switch r.policy.Condition {
	case CondAnyOf:
		for _, id := range r.policy.Inputs {
			if _, ok := r.connected[id]; !ok {
				r.didEnd = true
				return
			}
		}
	case CondAllOf:
		for _, id := range r.policy.Inputs {
			if _, ok := r.connected[id]; ok {
				return
			}
		}
		if len(r.policy.Inputs) > 0 {
			r.didEnd = true
		}
	case CondAnyInput:
		r.didEnd = r.anyRemoved
	case CondAllInputs:
		r.didEnd = len(r.connected) == 0
	case CondNever:
		// never transitions on its own
	}
}

// shouldSendEOS reports whether this is the moment to fire EOS: the
// condition has been met and no EOS has been sent yet. It is the only
// place didSendEOS flips, guaranteeing exactly one EOS per output.
func (r *eosReasoner) shouldSendEOS() bool {
	if r.didEnd && !r.didSendEOS {
		r.didSendEOS = true
		return true
	}
	return false
}

// hasEnded reports whether the output has reached its end condition,
// irrespective of whether EOS has already been sent.
func (r *eosReasoner) hasEnded() bool {
	return r.didEnd
}
