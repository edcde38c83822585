// Package lzma implements a decoder for raw LZMA streams as embedded in
// OpenCTM sections: a five byte properties header followed directly by the
// range coded payload, with the uncompressed size supplied by the caller.
package lzma

import (
	"fmt"
	"io"
)

const (
	numStates          = 12
	minMatchLen        = 2
	numLenToPosStates  = 4
	numPosSlotBits     = 6
	startPosModelIndex = 4
	endPosModelIndex   = 14
	numFullDistances   = 1 << (endPosModelIndex >> 1)
	numAlignBits       = 4
	minWindowSize      = 1 << 12

	// PropsSize is the length of the properties header.
	PropsSize = 5
)

// Properties are the literal context bits, literal position bits, position
// bits and dictionary size of a stream.
type Properties struct {
	LC, LP, PB uint
	DictSize   uint32
}

// ParseProperties decodes the five byte properties header.
func ParseProperties(b []byte) (Properties, error) {
	if len(b) < PropsSize {
		return Properties{}, fmt.Errorf("%w: header of %d bytes", ErrInvalidProperties, len(b))
	}
	d := uint(b[0])
	p := Properties{
		LC:       d % 9,
		LP:       (d / 9) % 5,
		PB:       d / 45,
		DictSize: uint32(b[1]) | uint32(b[2])<<8 | uint32(b[3])<<16 | uint32(b[4])<<24,
	}
	if p.LC > 8 || p.LP > 4 || p.PB > 4 {
		return Properties{}, fmt.Errorf("%w: lc=%d lp=%d pb=%d", ErrInvalidProperties, p.LC, p.LP, p.PB)
	}
	return p, nil
}

// Decompress reads the properties header and the payload from in and writes
// exactly outSize bytes to out. A negative outSize decodes until the end
// marker. Decoding also stops early at an end marker.
func Decompress(in io.ByteReader, out io.ByteWriter, outSize int64) error {
	var hdr [PropsSize]byte
	for i := range hdr {
		b, err := in.ReadByte()
		if err != nil {
			return fmt.Errorf("lzma: read properties: %w", err)
		}
		hdr[i] = b
	}
	props, err := ParseProperties(hdr[:])
	if err != nil {
		return err
	}
	if outSize == 0 {
		return nil
	}
	return newDecoder(props, outSize).decode(in, out, outSize)
}

type decoder struct {
	props     Properties
	dictCheck uint32
	winSize   int

	isMatch    [numStates << numPosBitsMax]prob
	isRep      [numStates]prob
	isRepG0    [numStates]prob
	isRepG1    [numStates]prob
	isRepG2    [numStates]prob
	isRep0Long [numStates << numPosBitsMax]prob

	posSlot    [numLenToPosStates]bitTree
	posDecoder [numFullDistances - endPosModelIndex]prob
	align      bitTree

	lenDec    *lenDecoder
	repLenDec *lenDecoder
	literals  *literalDecoder
}

func newDecoder(p Properties, outSize int64) *decoder {
	d := &decoder{props: p, dictCheck: max(p.DictSize, 1)}

	d.winSize = int(max(d.dictCheck, minWindowSize))
	// The window never needs to exceed the output when its size is known.
	if outSize > 0 && int64(d.winSize) > outSize {
		d.winSize = int(max(outSize, minWindowSize))
	}

	initProbs(d.isMatch[:])
	initProbs(d.isRep[:])
	initProbs(d.isRepG0[:])
	initProbs(d.isRepG1[:])
	initProbs(d.isRepG2[:])
	initProbs(d.isRep0Long[:])
	initProbs(d.posDecoder[:])
	for i := range d.posSlot {
		d.posSlot[i] = newBitTree(numPosSlotBits)
	}
	d.align = newBitTree(numAlignBits)

	posStates := 1 << p.PB
	d.lenDec = newLenDecoder(posStates)
	d.repLenDec = newLenDecoder(posStates)
	d.literals = newLiteralDecoder(p.LC, p.LP)
	return d
}

func lenToPosState(n uint32) uint32 {
	n -= minMatchLen
	if n < numLenToPosStates {
		return n
	}
	return numLenToPosStates - 1
}

func (d *decoder) decode(in io.ByteReader, out io.ByteWriter, outSize int64) error {
	var rc rangeDecoder
	if err := rc.init(in); err != nil {
		return err
	}
	win := newWindow(d.winSize, out)
	posMask := uint32(1)<<d.props.PB - 1

	var (
		state                  uint32
		rep0, rep1, rep2, rep3 uint32
		nowPos                 int64
		prevByte               byte
	)

	for outSize < 0 || nowPos < outSize {
		if rc.err != nil {
			return rc.err
		}
		if win.err != nil {
			return fmt.Errorf("lzma: write output: %w", win.err)
		}

		posState := uint32(nowPos) & posMask

		if rc.decodeBit(&d.isMatch[state<<numPosBitsMax+posState]) == 0 {
			c := d.literals.coder(uint32(nowPos), prevByte)
			if state < 7 {
				prevByte = decodeLiteral(&rc, c)
			} else {
				prevByte = decodeLiteralMatched(&rc, c, win.getByte(rep0))
			}
			win.putByte(prevByte)
			switch {
			case state < 4:
				state = 0
			case state < 10:
				state -= 3
			default:
				state -= 6
			}
			nowPos++
			continue
		}

		var n uint32
		if rc.decodeBit(&d.isRep[state]) == 1 {
			if rc.decodeBit(&d.isRepG0[state]) == 0 {
				if rc.decodeBit(&d.isRep0Long[state<<numPosBitsMax+posState]) == 0 {
					state = shortRepState(state)
					n = 1
				}
			} else {
				var dist uint32
				if rc.decodeBit(&d.isRepG1[state]) == 0 {
					dist = rep1
				} else {
					if rc.decodeBit(&d.isRepG2[state]) == 0 {
						dist = rep2
					} else {
						dist = rep3
						rep3 = rep2
					}
					rep2 = rep1
				}
				rep1 = rep0
				rep0 = dist
			}
			if n == 0 {
				n = minMatchLen + d.repLenDec.decode(&rc, posState)
				if state < 7 {
					state = 8
				} else {
					state = 11
				}
			}
		} else {
			rep3, rep2, rep1 = rep2, rep1, rep0
			n = minMatchLen + d.lenDec.decode(&rc, posState)
			if state < 7 {
				state = 7
			} else {
				state = 10
			}

			slot := d.posSlot[lenToPosState(n)].decode(&rc)
			if slot >= startPosModelIndex {
				ndb := uint(slot>>1) - 1
				rep0 = (2 | slot&1) << ndb
				if slot < endPosModelIndex {
					rep0 += reverseDecode(d.posDecoder[:], int(rep0)-int(slot)-1, &rc, ndb)
				} else {
					rep0 += rc.decodeDirectBits(ndb-numAlignBits) << numAlignBits
					rep0 += d.align.reverseDecode(&rc)
					if rep0 == 0xFFFFFFFF {
						break
					}
				}
			} else {
				rep0 = slot
			}
		}

		if rc.err != nil {
			return rc.err
		}
		if int64(rep0) >= nowPos || rep0 >= d.dictCheck {
			return fmt.Errorf("%w: distance %d at position %d", ErrData, rep0, nowPos)
		}
		if outSize >= 0 && nowPos+int64(n) > outSize {
			return fmt.Errorf("%w: match of %d bytes past end of output", ErrData, n)
		}
		win.copyBlock(rep0, int(n))
		nowPos += int64(n)
		prevByte = win.getByte(0)
	}

	if rc.err != nil {
		return rc.err
	}
	win.flush()
	if win.err != nil {
		return fmt.Errorf("lzma: write output: %w", win.err)
	}
	return nil
}

func shortRepState(state uint32) uint32 {
	if state < 7 {
		return 9
	}
	return 11
}
