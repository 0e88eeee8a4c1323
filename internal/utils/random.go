package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	upperAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func GenerateRandomString(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

// GenerateOrderNumber returns a human-facing order number like FD-20240131-7K2QZ9.
func GenerateOrderNumber(at time.Time) string {
	return fmt.Sprintf("%s-%s-%s",
		OrderNumberPrefix,
		at.UTC().Format("20060102"),
		GenerateRandomString(OrderNumberSuffixLength, upperAlphanumeric),
	)
}
