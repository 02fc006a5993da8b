// Package idgen generates pairing codes backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// CodeAlphabet omits O, I, 0 and 1 so codes survive being typed into game chat.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 6

func PairingCode() (string, error) {
	code, err := nanoid.Generate(CodeAlphabet, CodeLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return code, nil
}
