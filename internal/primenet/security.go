package primenet

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// trustedClientConstant keys the XOR permutation applied to the hashed GUID
// when deriving the per-install secret. The value is fixed by the protocol.
const trustedClientConstant = 17737

// installKey derives the per-install secret from the machine GUID: the MD5
// digest of the GUID is permuted byte-by-byte with the trusted-client
// constant, then hashed again and uppercase-hex encoded.
func installKey(guid string) string {
	k := md5.Sum([]byte(guid))
	for i := 0; i < len(k); i++ {
		k[i] ^= k[(int(k[i])^(trustedClientConstant&0xFF))%16] ^ (trustedClientConstant >> 8)
	}
	sum := md5.Sum(k[:])
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}

// signWithSalt stamps the salt ("ss") and signature ("sh") parameters onto
// p. The signature is the uppercase MD5 hex digest of the canonical query
// string concatenated with the install key, so it is a pure function of
// (guid, salt, params) and must be recomputed for every request.
func signWithSalt(guid string, salt uint16, p *Params) {
	p.Set("ss", int(salt))
	payload := p.Encode() + "&" + installKey(guid)
	sum := md5.Sum([]byte(payload))
	p.Set("sh", strings.ToUpper(fmt.Sprintf("%x", sum)))
}
