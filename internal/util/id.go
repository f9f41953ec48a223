package util

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random identifier, optionally namespaced by prefix.
func NewID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns a wizard session id of the form
// will_session_<unix ms>_<9 base36 chars>.
func NewSessionID(now time.Time) string {
	var b strings.Builder
	b.WriteString("will_session_")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	radix := big.NewInt(int64(len(base36)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}
