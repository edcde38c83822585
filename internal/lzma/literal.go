package lzma

const literalCoderSize = 0x300

// literalDecoder holds one 0x300 probability table per (position, previous
// byte) context.
type literalDecoder struct {
	coders  []prob
	lc      uint
	posMask uint32
}

func newLiteralDecoder(lc, lp uint) *literalDecoder {
	d := &literalDecoder{
		coders:  make([]prob, literalCoderSize<<(lc+lp)),
		lc:      lc,
		posMask: 1<<lp - 1,
	}
	initProbs(d.coders)
	return d
}

func (d *literalDecoder) coder(pos uint32, prevByte byte) []prob {
	i := (pos&d.posMask)<<d.lc + uint32(prevByte)>>(8-d.lc)
	off := int(i) * literalCoderSize
	return d.coders[off : off+literalCoderSize]
}

func decodeLiteral(rc *rangeDecoder, c []prob) byte {
	sym := uint32(1)
	for sym < 0x100 {
		sym = sym<<1 | rc.decodeBit(&c[sym])
	}
	return byte(sym)
}

// decodeLiteralMatched decodes a literal following a match, using the byte
// at the rep0 distance as extra context until the first mismatching bit.
func decodeLiteralMatched(rc *rangeDecoder, c []prob, matchByte byte) byte {
	sym := uint32(1)
	mb := uint32(matchByte)
	for sym < 0x100 {
		matchBit := (mb >> 7) & 1
		mb <<= 1
		bit := rc.decodeBit(&c[(1+matchBit)<<8+sym])
		sym = sym<<1 | bit
		if matchBit != bit {
			for sym < 0x100 {
				sym = sym<<1 | rc.decodeBit(&c[sym])
			}
			break
		}
	}
	return byte(sym)
}
