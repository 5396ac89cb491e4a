// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package soil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// hashDelimiter separates feature values in the canonical string.
const hashDelimiter = "|"

// IntegrityHash computes the SHA-256 fingerprint of a soil input.
//
// The canonical form rounds each value to two decimal places and joins
// them in feature order with a fixed delimiter, so equal readings (to two
// decimals) always hash identically. The hash is tamper evidence for the
// audit trail, not an authentication credential.
func IntegrityHash(in *Input) string {
	features := in.Features()
	parts := make([]string, len(features))
	for i, v := range features {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, hashDelimiter)))
	return hex.EncodeToString(sum[:])
}
