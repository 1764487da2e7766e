package pipeline

import (
	"math"
	"strings"

	"github.com/inodb/gvcf-reduce/internal/classify"
	"github.com/inodb/gvcf-reduce/internal/gvcferr"
	"github.com/inodb/gvcf-reduce/internal/vcf"
)

// variantType maps the INFO/TYPE tag to a classifier type. Without a TYPE
// tag the type is inferred from the allele lengths.
func variantType(v *vcf.Variant) (classify.VariantType, error) {
	typ, ok := v.StringInfo("TYPE")
	if !ok {
		if _, flag := v.Info["TYPE"]; flag {
			return 0, gvcferr.Formatf("INFO/TYPE has no value")
		}
		if v.IsIndel() {
			return classify.Indel, nil
		}
		return classify.Substitution, nil
	}
	if i := strings.IndexByte(typ, ','); i >= 0 {
		typ = typ[:i]
	}

	switch typ {
	case "indel", "ins", "del":
		return classify.Indel, nil
	case "snp", "mnp":
		return classify.Substitution, nil
	case "complex":
		if v.IsIndel() {
			return classify.Indel, nil
		}
		return classify.Substitution, nil
	default:
		return 0, gvcferr.Formatf("unknown INFO/TYPE %q", typ)
	}
}

// recordDepth returns INFO/DP as a depth value.
func recordDepth(v *vcf.Variant) (int32, error) {
	dp, err := v.IntInfo("DP")
	if err != nil {
		return 0, err
	}
	if dp > math.MaxInt32 {
		return 0, gvcferr.Formatf("INFO/DP %d too large", dp)
	}
	return int32(dp), nil
}

// checkAlleles rejects records without exactly one alternate allele.
func checkAlleles(v *vcf.Variant) error {
	if v.IsMultiAllelic() {
		return gvcferr.Formatf("record has %d alternate alleles; split multi-allelic records first", len(v.Alts()))
	}
	if len(v.Alts()) == 0 {
		return gvcferr.Formatf("record has no alternate allele")
	}
	return nil
}
