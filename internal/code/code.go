// Package code generates the short identifiers the rest of the system
// hands out: classroom join codes and student IDs.
package code

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// codeAlphabet excludes visually confusable characters (0/O, 1/I/L)
// so codes survive being read off a projector.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// classCodeLen is fixed by the join flow: students type exactly four characters.
const classCodeLen = 4

// ClassCode returns a random 4-character classroom code. Uniqueness is
// not guaranteed here; the store rejects duplicate inserts and the
// caller retries with a fresh code.
func ClassCode() string {
	buf := make([]byte, classCodeLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; nothing sensible to do but stop.
			panic("code: crypto/rand unavailable: " + err.Error())
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}

// StudentID returns an opaque identifier for a joining student,
// effectively collision-free for classroom-sized populations.
func StudentID() string {
	return "stu-" + uuid.NewString()
}
