package lowertransport

import "github.com/dejanb/btmesh/mesherr"

// BlockAck is a bitmap of received/acked segments keyed by SeqZero,
// §4.2.
type BlockAck struct {
	SeqZero uint16
	SegN uint8
	Bitmap uint32
}

// NewBlockAck constructs an empty BlockAck for a transmission of segN+1
// segments.
func NewBlockAck(seqZero uint16, segN uint8) BlockAck {
	return BlockAck{SeqZero: seqZero, SegN: segN}
}

// Ack marks segO as received/acked. It leaves the bitmap unchanged and
// returns an InvalidPDU error if segO exceeds SegN, per the invariant "ack(i) only for i<=SegN".
func (b *BlockAck) Ack(segO uint8) error {
	if segO > b.SegN {
 return mesherr.New(mesherr.InvalidPDU, "block ack segment out of range")
	}
	b.Bitmap |= 1 << segO
	return nil
}

// Complete reports whether every segment 0..SegN has been acked.
func (b BlockAck) Complete() bool {
	full := uint32(1)<<(uint32(b.SegN)+1) - 1
	return b.Bitmap&full == full
}

// Merge applies another bitmap idempotently: applying the same ack twice
// produces the same acked set, §8.
func (b *BlockAck) Merge(bitmap uint32) {
	b.Bitmap |= bitmap
}
