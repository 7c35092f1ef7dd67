package records

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const shortIDDigits = 5

// NewShortID returns a public certificate id: "ID" followed by the leading
// five decimal digits of a random UUID read as a 128-bit integer.
func NewShortID() string {
	return shortIDFrom(uuid.New())
}

func shortIDFrom(u uuid.UUID) string {
	digits := new(big.Int).SetBytes(u[:]).String()
	if len(digits) < shortIDDigits {
		digits += strings.Repeat("0", shortIDDigits-len(digits))
	}
	return "ID" + digits[:shortIDDigits]
}
