// Package settlement builds the external-transfer intents the host executes
// after committing a batch of commands.
package settlement

import (
	"encoding/binary"
	"errors"
)

var ErrInvalidAddressLimbs = errors.New("settlement: address limb out of range")

// Token indexes are part of the host contract: 0 settles the deposit token,
// 2<<8 settles the points token.
const (
	TokenFunds  uint32 = 0
	TokenPoints uint32 = 2 << 8
)

// Intent is a single validated external transfer awaiting host settlement.
type Intent struct {
	Address    [20]byte
	Amount     uint64
	TokenIndex uint32
}

// AddressLimbs splits a 20-byte external address into three 64-bit limbs,
// most-significant limb first: 4 bytes, then 8, then 8, big-endian within
// each limb.
func AddressLimbs(addr [20]byte) [3]uint64 {
	return [3]uint64{
		uint64(binary.BigEndian.Uint32(addr[0:4])),
		binary.BigEndian.Uint64(addr[4:12]),
		binary.BigEndian.Uint64(addr[12:20]),
	}
}

// AddressFromLimbs reassembles the 20-byte address. The first limb must fit
// in 32 bits.
func AddressFromLimbs(limbs [3]uint64) ([20]byte, error) {
	var addr [20]byte
	if limbs[0] > 0xffffffff {
		return addr, ErrInvalidAddressLimbs
	}
	binary.BigEndian.PutUint32(addr[0:4], uint32(limbs[0]))
	binary.BigEndian.PutUint64(addr[4:12], limbs[1])
	binary.BigEndian.PutUint64(addr[12:20], limbs[2])
	return addr, nil
}

// Queue accumulates settlement intents in command order until the host drains
// them at batch boundaries.
type Queue struct {
	intents []Intent
}

func NewQueue() *Queue {
	return &Queue{}
}

// Append records a validated intent.
func (q *Queue) Append(intent Intent) {
	q.intents = append(q.intents, intent)
}

// Size reports the number of pending intents.
func (q *Queue) Size() int {
	return len(q.intents)
}

// Pending returns the queued intents without draining them.
func (q *Queue) Pending() []Intent {
	out := make([]Intent, len(q.intents))
	copy(out, q.intents)
	return out
}

// Flush serialises and clears the queue. Each intent encodes as a big-endian
// u32 token index, u64 amount, then the raw 20-byte address.
func (q *Queue) Flush() []byte {
	out := make([]byte, 0, len(q.intents)*32)
	var buf [8]byte
	for _, intent := range q.intents {
		binary.BigEndian.PutUint32(buf[:4], intent.TokenIndex)
		out = append(out, buf[:4]...)
		binary.BigEndian.PutUint64(buf[:], intent.Amount)
		out = append(out, buf[:]...)
		out = append(out, intent.Address[:]...)
	}
	q.intents = nil
	return out
}
