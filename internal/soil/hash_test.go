// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package soil

import (
	"regexp"
	"testing"
)

func TestIntegrityHash(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		a := validInput()
		b := validInput()
		if got, want := IntegrityHash(&a), IntegrityHash(&b); got != want {
			t.Errorf("hashes differ for identical inputs: %s vs %s", got, want)
		}
	})

	t.Run("stable under sub-cent differences", func(t *testing.T) {
		a := validInput()
		b := validInput()
		b.Temperature = 20.871 // rounds to the same two decimals
		if got, want := IntegrityHash(&a), IntegrityHash(&b); got != want {
			t.Errorf("hashes differ despite equal canonical form: %s vs %s", got, want)
		}
	})

	t.Run("differs per field", func(t *testing.T) {
		base := validInput()
		baseHash := IntegrityHash(&base)

		mutations := []func(*Input){
			func(in *Input) { in.Nitrogen += 0.01 },
			func(in *Input) { in.Phosphorus += 0.01 },
			func(in *Input) { in.Potassium += 0.01 },
			func(in *Input) { in.PH += 0.01 },
			func(in *Input) { in.Moisture += 0.01 },
			func(in *Input) { in.Temperature += 0.01 },
		}
		for i, mutate := range mutations {
			in := validInput()
			mutate(&in)
			if IntegrityHash(&in) == baseHash {
				t.Errorf("mutation %d did not change the hash", i)
			}
		}
	})

	t.Run("output is 64 hex chars", func(t *testing.T) {
		in := validInput()
		if h := IntegrityHash(&in); !hexRe.MatchString(h) {
			t.Errorf("IntegrityHash() = %q, want 64 lowercase hex chars", h)
		}
	})
}
