package expr

import "fmt"

// PropAccess describes one frame property the per-frame invoker must
// materialize into the constants buffer, in buffer order.
type PropAccess struct {
	Clip int
	Name string
}

// resolveProps rewrites property-load immediates into dense constants
// buffer slots. After decoding, a property op's immediate carries
// loadConstLast + clipIndex; this pass deduplicates (clip, name) pairs,
// assigns slots in first-appearance order and rewrites the immediates in
// place so the op stream is self-contained at invocation time.
func resolveProps(tokens []string, ops []Op, numInputs int) ([]PropAccess, error) {
	type key struct {
		clip int
		name string
	}
	slots := make(map[key]int)
	var accesses []PropAccess

	for i := range ops {
		op := &ops[i]
		if op.Type != OpLoadConst || op.Imm.Int() < loadConstLast {
			continue
		}
		clip := int(op.Imm.Int()) - loadConstLast
		if clip >= numInputs {
			return nil, fmt.Errorf("reference to undefined clip: %s", tokens[i])
		}
		k := key{clip: clip, name: op.Name}
		slot, ok := slots[k]
		if !ok {
			slot = len(slots)
			slots[k] = slot
			accesses = append(accesses, PropAccess{Clip: clip, Name: op.Name})
		}
		op.Imm = ImmInt(int32(loadConstLast + slot))
	}
	return accesses, nil
}
