package core

import (
	"fmt"
	"strings"
)

// Phase is a Kakao deployment tier. Devices can host builds of several
// phases at once, so phase takes part in every shared-store key.
type Phase string

const (
	PhaseDev        Phase = "Dev"     // alpha
	PhaseSandbox    Phase = "Sandbox" // sandbox
	PhaseCbt        Phase = "Cbt"     // beta
	PhaseProduction Phase = "Production"
)

func ParsePhase(s string) (Phase, error) {
	for _, p := range []Phase{PhaseDev, PhaseSandbox, PhaseCbt, PhaseProduction} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// IsProduction reports whether p is the production tier. Anything that is
// not a known pre-production phase counts as production.
func (p Phase) IsProduction() bool {
	switch p {
	case PhaseDev, PhaseSandbox, PhaseCbt:
		return false
	}
	return true
}
