package core

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewClientID returns a random identifier for records created locally.
// When the random source is unavailable it falls back to a timestamp based
// id of the form local-<unix ms>-<hex>.
func NewClientID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return "local-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + hex.EncodeToString(buf[:])
}
