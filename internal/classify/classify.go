// Package classify decides what happens to each called variant based on its
// allele frequency and type.
package classify

import (
	"fmt"

	"github.com/inodb/gvcf-reduce/internal/gvcferr"
)

// Decision is the outcome of classifying a variant.
type Decision int

const (
	// Discard drops the variant from every output.
	Discard Decision = iota
	// Ambiguous marks a substitution to be encoded with an IUPAC ambiguity code.
	Ambiguous
	// Consensus marks a variant to be applied to the consensus sequence.
	Consensus
)

func (d Decision) String() string {
	switch d {
	case Discard:
		return "discard"
	case Ambiguous:
		return "ambiguous"
	case Consensus:
		return "consensus"
	default:
		return "unknown"
	}
}

// VariantType is the kind of called variant. Reference blocks are handled by
// the caller and never classified.
type VariantType int

const (
	Substitution VariantType = iota
	Indel
)

func (t VariantType) String() string {
	switch t {
	case Substitution:
		return "substitution"
	case Indel:
		return "indel"
	default:
		return "unknown"
	}
}

// Default allele-frequency thresholds.
const (
	DefaultLower = 0.25
	DefaultUpper = 0.75
)

// Thresholds bound the ambiguity band of allele frequencies.
type Thresholds struct {
	Lower float64 // variants with af < Lower are discarded
	Upper float64 // substitutions with af > Upper are consensus
}

// DefaultThresholds returns the default ambiguity band.
func DefaultThresholds() Thresholds {
	return Thresholds{Lower: DefaultLower, Upper: DefaultUpper}
}

// Validate requires 0 <= Lower <= Upper <= 1.
func (th Thresholds) Validate() error {
	if th.Lower < 0 || th.Lower > 1 {
		return gvcferr.Configurationf("lower ambiguity frequency %g outside [0, 1]", th.Lower)
	}
	if th.Upper < 0 || th.Upper > 1 {
		return gvcferr.Configurationf("upper ambiguity frequency %g outside [0, 1]", th.Upper)
	}
	if th.Lower > th.Upper {
		return gvcferr.Configurationf("lower ambiguity frequency %g exceeds upper %g", th.Lower, th.Upper)
	}
	return nil
}

// AlleleFrequency returns alt/(ref+alt). ok is false when no reads support
// either allele.
func AlleleFrequency(refReads, altReads int64) (af float64, ok bool) {
	total := refReads + altReads
	if total <= 0 {
		return 0, false
	}
	return float64(altReads) / float64(total), true
}

// Classify decides the fate of a variant:
//
//	af < Lower                  -> Discard
//	indel, or af > Upper        -> Consensus
//	otherwise                   -> Ambiguous
//
// Both bounds are exclusive, so af == Lower is kept and a substitution with
// af == Upper is Ambiguous. Variants with no supporting reads are discarded.
func (th Thresholds) Classify(refReads, altReads int64, typ VariantType) Decision {
	af, ok := AlleleFrequency(refReads, altReads)
	if !ok || af < th.Lower {
		return Discard
	}

	switch typ {
	case Indel:
		return Consensus
	case Substitution:
		if af > th.Upper {
			return Consensus
		}
		return Ambiguous
	default:
		return Discard
	}
}

// ParseDecision parses the String form of a Decision.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "discard":
		return Discard, nil
	case "ambiguous":
		return Ambiguous, nil
	case "consensus":
		return Consensus, nil
	}
	return 0, fmt.Errorf("unknown decision %q", s)
}

// ParseVariantType parses the String form of a VariantType.
func ParseVariantType(s string) (VariantType, error) {
	switch s {
	case "substitution":
		return Substitution, nil
	case "indel":
		return Indel, nil
	}
	return 0, fmt.Errorf("unknown variant type %q", s)
}
