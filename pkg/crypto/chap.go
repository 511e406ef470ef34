package crypto

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"io"
)

const (
	// CHAPChallengeLength is the default length of a CHAP challenge in bytes
	CHAPChallengeLength = 16

	// CHAPPasswordLength is the length of a CHAP-Password value
	CHAPPasswordLength = 1 + md5.Size
)

// GenerateCHAPChallenge reads a CHAP challenge of length bytes from r, or
// from crypto/rand when r is nil. The length is clamped to 1..255.
func GenerateCHAPChallenge(r io.Reader, length int) ([]byte, error) {
	if length <= 0 {
		length = CHAPChallengeLength
	}

	if length > 255 {
		length = 255
	}

	if r == nil {
		r = rand.Reader
	}

	challenge := make([]byte, length)
	if _, err := io.ReadFull(r, challenge); err != nil {
		return nil, err
	}

	return challenge, nil
}

// CHAPChallenge returns the challenge a CHAP-Password is computed over:
// the CHAP-Challenge attribute when present, else the request authenticator.
func CHAPChallenge(challenge []byte, request Authenticator) []byte {
	if len(challenge) > 0 {
		return challenge
	}
	return request[:]
}

// EncodeCHAPPassword builds a CHAP-Password value: the identifier followed
// by MD5(identifier + password + challenge).
func EncodeCHAPPassword(ident byte, password, challenge []byte) []byte {
	h := md5.New()
	h.Write([]byte{ident})
	h.Write(password)
	h.Write(challenge)

	return h.Sum([]byte{ident})
}

// CheckCHAPPassword reports whether chapPassword was computed from
// password and challenge
func CheckCHAPPassword(chapPassword, password, challenge []byte) bool {
	if len(chapPassword) != CHAPPasswordLength {
		return false
	}

	expected := EncodeCHAPPassword(chapPassword[0], password, challenge)

	return subtle.ConstantTimeCompare(chapPassword, expected) == 1
}
