package settlement

import (
	"bytes"
	"errors"
	"testing"
)

func TestAddressLimbRoundTrip(t *testing.T) {
	var addr [20]byte
	for i := range addr {
		addr[i] = byte(i + 1)
	}
	limbs := AddressLimbs(addr)
	if limbs[0] != 0x01020304 {
		t.Fatalf("limb 0 = %#x, want 0x01020304", limbs[0])
	}
	if limbs[1] != 0x05060708090a0b0c {
		t.Fatalf("limb 1 = %#x, want 0x05060708090a0b0c", limbs[1])
	}
	if limbs[2] != 0x0d0e0f1011121314 {
		t.Fatalf("limb 2 = %#x, want 0x0d0e0f1011121314", limbs[2])
	}

	back, err := AddressFromLimbs(limbs)
	if err != nil {
		t.Fatalf("AddressFromLimbs returned error: %v", err)
	}
	if back != addr {
		t.Fatalf("round trip mismatch: %x != %x", back, addr)
	}
}

func TestAddressFromLimbsRejectsWideLimb(t *testing.T) {
	_, err := AddressFromLimbs([3]uint64{1 << 32, 0, 0})
	if !errors.Is(err, ErrInvalidAddressLimbs) {
		t.Fatalf("error = %v, want ErrInvalidAddressLimbs", err)
	}
}

func TestQueueFlush(t *testing.T) {
	q := NewQueue()
	var addr [20]byte
	addr[19] = 0xee

	q.Append(Intent{Address: addr, Amount: 500, TokenIndex: TokenFunds})
	q.Append(Intent{Address: addr, Amount: 3, TokenIndex: TokenPoints})
	if q.Size() != 2 {
		t.Fatalf("size = %d, want 2", q.Size())
	}

	encoded := q.Flush()
	if q.Size() != 0 {
		t.Fatalf("flush must drain the queue, size = %d", q.Size())
	}
	if len(encoded) != 64 {
		t.Fatalf("encoded length = %d, want 64", len(encoded))
	}

	want := []byte{
		0, 0, 0, 0, // token 0
		0, 0, 0, 0, 0, 0, 1, 244, // amount 500
	}
	want = append(want, addr[:]...)
	want = append(want,
		0, 0, 2, 0, // token 2<<8
		0, 0, 0, 0, 0, 0, 0, 3, // amount 3
	)
	want = append(want, addr[:]...)
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encoding mismatch:\n got %x\nwant %x", encoded, want)
	}
}

func TestQueuePendingDoesNotDrain(t *testing.T) {
	q := NewQueue()
	q.Append(Intent{Amount: 1, TokenIndex: TokenFunds})
	pending := q.Pending()
	if len(pending) != 1 || q.Size() != 1 {
		t.Fatalf("pending peeked %d intents, queue holds %d; want 1 and 1", len(pending), q.Size())
	}
	pending[0].Amount = 99
	if q.Pending()[0].Amount != 1 {
		t.Fatal("mutating the peeked slice changed the queue")
	}
}
