package util

import (
	"fmt"
	"time"
)

// GenerateTimestampWithPrefix builds externally visible codes such as redeem
// order codes ("RO1700000000000000001").
func GenerateTimestampWithPrefix(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}
