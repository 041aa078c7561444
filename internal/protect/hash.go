package protect

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// CommitmentHash content-addresses a protected swap: keccak-256 over
// sender, token pair, amounts, deadline and nonce with length-safe
// separators. Any single-field change yields a different hash.
func CommitmentHash(p *domain.SwapParams) string {
	h := sha3.NewLegacyKeccak256()

	writeField := func(b []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(b)))
		h.Write(n[:])
		h.Write(b)
	}

	writeField([]byte(strings.ToLower(p.Sender)))
	writeField([]byte(strings.ToLower(p.TokenIn)))
	writeField([]byte(strings.ToLower(p.TokenOut)))
	if p.AmountIn != nil {
		writeField(p.AmountIn.Bytes())
	} else {
		writeField(nil)
	}
	if p.MinAmountOut != nil {
		writeField(p.MinAmountOut.Bytes())
	} else {
		writeField(nil)
	}

	var fixed [16]byte
	binary.BigEndian.PutUint64(fixed[:8], uint64(p.Deadline))
	binary.BigEndian.PutUint64(fixed[8:], p.Nonce)
	h.Write(fixed[:])

	var out [32]byte
	h.Sum(out[:0])
	return "0x" + hex.EncodeToString(out[:])
}
