package lzma

import (
	"fmt"
	"io"
)

const (
	topValue       = 1 << 24
	numBitModelBit = 11
	bitModelTotal  = 1 << numBitModelBit
	numMoveBits    = 5
	probInit       = bitModelTotal / 2
)

type prob uint16

func initProbs(p []prob) {
	for i := range p {
		p[i] = probInit
	}
}

// rangeDecoder pulls bits out of an arithmetic coded byte stream. A failed
// read is remembered in err and later reads return zero; the decode loop
// checks err once per symbol.
type rangeDecoder struct {
	in   io.ByteReader
	rng  uint32
	code uint32
	err  error
}

func (rc *rangeDecoder) init(in io.ByteReader) error {
	rc.in = in
	rc.rng = 0xFFFFFFFF
	rc.code = 0
	for i := 0; i < 5; i++ {
		rc.code = rc.code<<8 | uint32(rc.readByte())
	}
	return rc.err
}

func (rc *rangeDecoder) readByte() byte {
	if rc.err != nil {
		return 0
	}
	b, err := rc.in.ReadByte()
	if err != nil {
		rc.err = fmt.Errorf("lzma: read input: %w", err)
		return 0
	}
	return b
}

func (rc *rangeDecoder) normalize() {
	if rc.rng < topValue {
		rc.code = rc.code<<8 | uint32(rc.readByte())
		rc.rng <<= 8
	}
}

// decodeBit decodes one bit with the adaptive probability p and updates it.
func (rc *rangeDecoder) decodeBit(p *prob) uint32 {
	bound := (rc.rng >> numBitModelBit) * uint32(*p)
	var bit uint32
	if rc.code < bound {
		rc.rng = bound
		*p += (bitModelTotal - *p) >> numMoveBits
	} else {
		rc.rng -= bound
		rc.code -= bound
		*p -= *p >> numMoveBits
		bit = 1
	}
	rc.normalize()
	return bit
}

// decodeDirectBits decodes n bits with fixed probability one half.
func (rc *rangeDecoder) decodeDirectBits(n uint) uint32 {
	var res uint32
	for ; n > 0; n-- {
		rc.rng >>= 1
		t := (rc.code - rc.rng) >> 31
		rc.code -= rc.rng & (t - 1)
		res = res<<1 | (1 - t)
		rc.normalize()
	}
	return res
}
