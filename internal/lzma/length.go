package lzma

const (
	numPosBitsMax = 4
	numPosStates  = 1 << numPosBitsMax

	numLowLenBits  = 3
	numMidLenBits  = 3
	numHighLenBits = 8
	numLowLen      = 1 << numLowLenBits
	numMidLen      = 1 << numMidLenBits
)

// lenDecoder decodes match lengths minus the minimum match length.
type lenDecoder struct {
	choice  prob
	choice2 prob
	low     [numPosStates]bitTree
	mid     [numPosStates]bitTree
	high    bitTree
}

func newLenDecoder(posStates int) *lenDecoder {
	d := &lenDecoder{choice: probInit, choice2: probInit, high: newBitTree(numHighLenBits)}
	for i := 0; i < posStates; i++ {
		d.low[i] = newBitTree(numLowLenBits)
		d.mid[i] = newBitTree(numMidLenBits)
	}
	return d
}

func (d *lenDecoder) decode(rc *rangeDecoder, posState uint32) uint32 {
	if rc.decodeBit(&d.choice) == 0 {
		return d.low[posState].decode(rc)
	}
	if rc.decodeBit(&d.choice2) == 0 {
		return numLowLen + d.mid[posState].decode(rc)
	}
	return numLowLen + numMidLen + d.high.decode(rc)
}
