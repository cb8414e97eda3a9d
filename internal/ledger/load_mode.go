package ledger

import (
	"fmt"
	"strings"
)

// LoadMode selects how Load treats the totals stored in a snapshot.
type LoadMode int

const (
	// LoadTrust takes stored totals verbatim. A hand-edited or corrupted
	// snapshot can leave totals that disagree with the transactions.
	LoadTrust LoadMode = iota
	// LoadRecompute ignores stored totals and folds them from the
	// transactions.
	LoadRecompute
	// LoadStrict rejects a snapshot whose stored totals disagree with the
	// fold, leaving the ledger unchanged.
	LoadStrict
)

func (m LoadMode) String() string {
	switch m {
	case LoadTrust:
		return "trust"
	case LoadRecompute:
		return "recompute"
	case LoadStrict:
		return "strict"
	default:
		return fmt.Sprintf("LoadMode(%d)", int(m))
	}
}

// ParseLoadMode maps "trust", "recompute" or "strict" to a LoadMode. The
// empty string selects LoadTrust.
func ParseLoadMode(s string) (LoadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trust":
		return LoadTrust, nil
	case "recompute":
		return LoadRecompute, nil
	case "strict":
		return LoadStrict, nil
	default:
		return LoadTrust, fmt.Errorf("invalid load mode %q: must be one of trust, recompute, strict", s)
	}
}
