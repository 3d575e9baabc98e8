package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"certledger/core/ledger"
)

var (
	accountPrefix   = []byte("acct:")
	productPrefix   = []byte("prod:")
	certPrefix      = []byte("cert:")
	certOwnerPrefix = []byte("cert-owner:")
	globalStateKey  = ethcrypto.Keccak256([]byte("global-state"))
)

func identityBytes(id ledger.Identity) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], id[0])
	binary.BigEndian.PutUint64(buf[8:], id[1])
	return buf
}

func accountKey(id ledger.Identity) []byte {
	buf := make([]byte, 0, len(accountPrefix)+16)
	buf = append(buf, accountPrefix...)
	buf = append(buf, identityBytes(id)...)
	return ethcrypto.Keccak256(buf)
}

func productKey(id uint64) []byte {
	buf := make([]byte, len(productPrefix)+8)
	copy(buf, productPrefix)
	binary.BigEndian.PutUint64(buf[len(productPrefix):], id)
	return ethcrypto.Keccak256(buf)
}

func certificateKey(owner ledger.Identity, id uint64) []byte {
	buf := make([]byte, 0, len(certPrefix)+24)
	buf = append(buf, certPrefix...)
	buf = append(buf, identityBytes(owner)...)
	var idbuf [8]byte
	binary.BigEndian.PutUint64(idbuf[:], id)
	buf = append(buf, idbuf[:]...)
	return ethcrypto.Keccak256(buf)
}

func certificateOwnerKey(id uint64) []byte {
	buf := make([]byte, len(certOwnerPrefix)+8)
	copy(buf, certOwnerPrefix)
	binary.BigEndian.PutUint64(buf[len(certOwnerPrefix):], id)
	return ethcrypto.Keccak256(buf)
}
