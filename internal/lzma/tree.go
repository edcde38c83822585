package lzma

// bitTree decodes numBits wide symbols most significant bit first.
type bitTree struct {
	probs   []prob
	numBits uint
}

func newBitTree(numBits uint) bitTree {
	t := bitTree{probs: make([]prob, 1<<numBits), numBits: numBits}
	initProbs(t.probs)
	return t
}

func (t *bitTree) decode(rc *rangeDecoder) uint32 {
	m := uint32(1)
	for i := uint(0); i < t.numBits; i++ {
		m = m<<1 | rc.decodeBit(&t.probs[m])
	}
	return m - 1<<t.numBits
}

func (t *bitTree) reverseDecode(rc *rangeDecoder) uint32 {
	return reverseDecode(t.probs, 0, rc, t.numBits)
}

// reverseDecode decodes numBits least significant bit first using the
// probabilities starting at probs[start].
func reverseDecode(probs []prob, start int, rc *rangeDecoder, numBits uint) uint32 {
	m := uint32(1)
	var sym uint32
	for i := uint(0); i < numBits; i++ {
		bit := rc.decodeBit(&probs[start+int(m)])
		m = m<<1 | bit
		sym |= bit << i
	}
	return sym
}
