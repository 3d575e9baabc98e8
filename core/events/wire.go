package events

import "encoding/binary"

// Stable wire tags for the host's indexing collaborator. The values are fixed
// for compatibility with deployed indexers and must never be renumbered.
const (
	WireIndexedObject        uint32 = 5
	WireProductTypeCreated   uint32 = 6
	WireProductTypeModified  uint32 = 7
	WireCertificatePurchased uint32 = 8
	WireInterestClaimed      uint32 = 9
	WirePrincipalRedeemed    uint32 = 10
	WireDeposit              uint32 = 11
	WireWithdrawal           uint32 = 12
	WirePointsWithdrawal     uint32 = 13
	WireAdminWithdrawal      uint32 = 14
	WireReserveRatioChanged  uint32 = 15
)

// EncodeWire serialises a batch of events into the tagged record stream the
// host consumes: per event a big-endian u32 type, u32 field count, then the
// u64 fields.
func EncodeWire(batch []Event) []byte {
	size := 0
	for _, e := range batch {
		size += 8 + 8*len(e.Fields())
	}
	out := make([]byte, 0, size)
	var buf [8]byte
	for _, e := range batch {
		binary.BigEndian.PutUint32(buf[:4], e.WireType())
		binary.BigEndian.PutUint32(buf[4:], uint32(len(e.Fields())))
		out = append(out, buf[:]...)
		for _, field := range e.Fields() {
			binary.BigEndian.PutUint64(buf[:], field)
			out = append(out, buf[:]...)
		}
	}
	return out
}
