// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// TempPasswordLength is the length of generated temporary passwords.
const TempPasswordLength = 12

// Character sets for temporary passwords. Ambiguous characters
// (0, O, 1, I, l) are excluded so passwords survive being read aloud
// or copied by hand.
const (
	tempUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	tempLower  = "abcdefghijkmnopqrstuvwxyz"
	tempDigits = "23456789"
	tempAll    = tempUpper + tempLower + tempDigits
)

// GenerateTempPassword returns a random 12-character password that is
// guaranteed to satisfy the password policy: one character is drawn from
// the uppercase set and one from the digit set, the rest from the full
// alphabet, then the result is shuffled so the guaranteed characters do
// not sit at fixed positions.
func GenerateTempPassword() (string, error) {
	chars := make([]byte, 0, TempPasswordLength)

	c, err := randomChar(tempUpper)
	if err != nil {
		return "", err
	}
	chars = append(chars, c)

	c, err = randomChar(tempDigits)
	if err != nil {
		return "", err
	}
	chars = append(chars, c)

	for len(chars) < TempPasswordLength {
		c, err = randomChar(tempAll)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates with crypto/rand indices.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("shuffling password: %w", err)
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generating random character: %w", err)
	}
	return set[n.Int64()], nil
}
