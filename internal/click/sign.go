package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Click signs callbacks with an MD5 digest over a fixed field concatenation.
// The field order and the MD5 choice are dictated by the gateway and must
// match byte for byte; amounts are hashed exactly as transmitted.

// SignPrepare computes the action-0 digest:
// click_trans_id + service_id + secret_key + merchant_trans_id + amount + action + sign_time.
func SignPrepare(clickTransID, serviceID, secretKey, merchantTransID, amount, action, signTime string) string {
	return md5hex(clickTransID + serviceID + secretKey + merchantTransID + amount + action + signTime)
}

// SignComplete computes the action-1 digest, which additionally includes
// merchant_prepare_id after merchant_trans_id.
func SignComplete(clickTransID, serviceID, secretKey, merchantTransID, merchantPrepareID, amount, action, signTime string) string {
	return md5hex(clickTransID + serviceID + secretKey + merchantTransID + merchantPrepareID + amount + action + signTime)
}

// VerifySign compares an expected digest against the caller-supplied
// sign_string, case-insensitively and in constant time.
func VerifySign(expected, got string) bool {
	e := []byte(strings.ToLower(expected))
	g := []byte(strings.ToLower(got))
	if len(e) != len(g) {
		return false
	}
	return subtle.ConstantTimeCompare(e, g) == 1
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
