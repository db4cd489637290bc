package ton

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Address forms:
//
//	raw            "<workchain>:<64 hex chars>", as delivered by chain queries
//	human-readable 48-char base64url of tag + workchain + hash + crc16,
//	               the form wallets display and the gateway stores
const (
	tagNonBounceable = 0x51
	rawHashHexLen    = 64
)

// NormalizeAddress converts a raw workchain:hex account address into the
// human-readable non-bounceable form. All stored merchant and sub-wallet
// addresses use this form, so deposit resolution must normalize before
// lookup.
func NormalizeAddress(raw string) (string, error) {
	wcPart, hashPart, ok := strings.Cut(raw, ":")
	if !ok {
		return "", fmt.Errorf("malformed raw address %q: missing workchain separator", raw)
	}

	wc, err := strconv.ParseInt(wcPart, 10, 8)
	if err != nil {
		return "", fmt.Errorf("malformed raw address %q: bad workchain: %w", raw, err)
	}

	if len(hashPart) != rawHashHexLen {
		return "", fmt.Errorf("malformed raw address %q: hash must be %d hex chars", raw, rawHashHexLen)
	}
	hash, err := hex.DecodeString(hashPart)
	if err != nil {
		return "", fmt.Errorf("malformed raw address %q: bad hash: %w", raw, err)
	}

	body := make([]byte, 0, 36)
	body = append(body, tagNonBounceable, byte(int8(wc)))
	body = append(body, hash...)

	crc := crc16(body)
	body = append(body, byte(crc>>8), byte(crc))

	return base64.URLEncoding.EncodeToString(body), nil
}

// crc16 implements CRC-16/XMODEM (poly 0x1021, zero init), the checksum
// used by the human-readable address encoding.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
