package events

import (
	"encoding/hex"
	"strconv"

	"certledger/core/ledger"
)

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func boolToUint(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

func identityAttr(id ledger.Identity) string {
	return id.String()
}

func addressAttr(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}
