// Package credential turns raw passwords into their secured, comparable form.
//
// The transform is argon2id keyed with a fixed, pepper-derived salt: it is
// one-way but deterministic, so equal raw passwords always produce equal
// secured values. Backends rely on this to compare credentials by equality
// (the dual backend hands the secured form to the identity provider).
package credential

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"golang.org/x/crypto/argon2"
)

const (
	prefix = "argon2id$"

	timeCost    uint32 = 2
	memoryKB    uint32 = 19 * 1024
	parallelism uint8  = 1
	keyLength   uint32 = 32
)

type Codec struct {
	salt []byte
}

func NewCodec(pepper string) *Codec {
	salt := sha256.Sum256([]byte(pepper))
	return &Codec{salt: salt[:]}
}

func (c *Codec) Secure(raw string) domain.SecuredPassword {
	key := argon2.IDKey([]byte(raw), c.salt, timeCost, memoryKB, parallelism, keyLength)
	return domain.SecuredPassword(prefix + base64.RawStdEncoding.EncodeToString(key))
}

func (c *Codec) Matches(secured domain.SecuredPassword, raw string) bool {
	return secured.Equal(c.Secure(raw))
}
