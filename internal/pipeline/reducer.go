package pipeline

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/gvcf-reduce/internal/classify"
	"github.com/inodb/gvcf-reduce/internal/depth"
	"github.com/inodb/gvcf-reduce/internal/gvcferr"
	"github.com/inodb/gvcf-reduce/internal/mask"
	"github.com/inodb/gvcf-reduce/internal/vcf"
)

// RecordSink receives the header and the records of one output stream.
type RecordSink interface {
	WriteHeader(lines []string) error
	Write(v *vcf.Variant) error
}

// Sinks are the three outputs of a reduction.
type Sinks struct {
	Mask      io.Writer
	Ambiguous RecordSink
	Consensus RecordSink
}

// Call is the classification of one non-reference record.
type Call struct {
	Index    int // 1-based record index
	Chrom    string
	Pos      int64
	End      int64
	Ref      string
	Alt      string
	Type     classify.VariantType
	RefReads int64
	AltReads int64
	AF       float64
	Decision classify.Decision
}

// ContigSummary describes the coverage of one contig after a reduction.
type ContigSummary struct {
	depth.Summary
	MaskedBases int64
	Intervals   int
}

// Summary counts what a reduction did.
type Summary struct {
	Records   int
	RefBlocks int
	Discarded int
	Ambiguous int
	Consensus int
	Contigs   []ContigSummary
}

// Result is the outcome of a successful reduction.
type Result struct {
	Calls   []Call
	Mask    []mask.Interval
	Summary Summary
}

// Reducer folds gVCF records into depth, calls and a coverage mask.
type Reducer struct {
	cfg    Config
	logger *zap.Logger
}

// NewReducer creates a reducer with the given configuration.
func NewReducer(cfg Config) (*Reducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reducer{cfg: cfg, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for debug and info messages.
func (r *Reducer) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Reduce reads every record from parser in order. Reference blocks only
// contribute depth; other records contribute depth and are classified into
// the ambiguous or consensus sink or discarded. After the last record the
// coverage mask is written. Any error aborts the reduction.
func (r *Reducer) Reduce(parser vcf.VariantParser, sinks Sinks) (*Result, error) {
	table := depth.NewTable()
	for _, c := range parser.Contigs() {
		if err := table.DeclareContig(c.Name, c.Length); err != nil {
			return nil, err
		}
	}

	header := parser.Header()
	if err := sinks.Ambiguous.WriteHeader(header); err != nil {
		return nil, fmt.Errorf("write ambiguous header: %w", err)
	}
	if err := sinks.Consensus.WriteHeader(header); err != nil {
		return nil, fmt.Errorf("write consensus header: %w", err)
	}

	res := &Result{}
	sum := &res.Summary
	for {
		v, err := parser.Next()
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", sum.Records+1, err)
		}
		if v == nil {
			break
		}
		sum.Records++

		call, err := r.consume(table, v, sum.Records)
		if err != nil {
			return nil, &gvcferr.RecordError{
				Index:  sum.Records,
				Line:   parser.LineNumber(),
				Contig: v.Chrom,
				Pos:    v.Pos,
				Err:    err,
			}
		}
		if call == nil {
			sum.RefBlocks++
			continue
		}
		res.Calls = append(res.Calls, *call)

		switch call.Decision {
		case classify.Discard:
			sum.Discarded++
			r.logger.Debug("discarding low-frequency variant",
				zap.String("chrom", v.Chrom),
				zap.Int64("pos", v.Pos),
				zap.String("alt", v.Alt),
				zap.Float64("af", call.AF))
		case classify.Ambiguous:
			sum.Ambiguous++
			if err := sinks.Ambiguous.Write(v); err != nil {
				return nil, fmt.Errorf("write ambiguous variant: %w", err)
			}
		case classify.Consensus:
			sum.Consensus++
			if err := sinks.Consensus.Write(v); err != nil {
				return nil, fmt.Errorf("write consensus variant: %w", err)
			}
		}
	}

	res.Mask = mask.Build(table, int32(r.cfg.MinDepth))
	if err := mask.Write(sinks.Mask, res.Mask); err != nil {
		return nil, fmt.Errorf("write coverage mask: %w", err)
	}

	depths, err := table.Summarize()
	if err != nil {
		return nil, fmt.Errorf("summarize depth: %w", err)
	}
	for _, d := range depths {
		cs := ContigSummary{
			Summary:     d,
			MaskedBases: mask.MaskedBases(res.Mask, d.Contig),
		}
		for _, iv := range res.Mask {
			if iv.Contig == d.Contig {
				cs.Intervals++
			}
		}
		sum.Contigs = append(sum.Contigs, cs)
	}

	r.logSummary(sum)
	return res, nil
}

// consume applies one record to the depth table and classifies it. It
// returns a nil call for reference blocks.
func (r *Reducer) consume(table *depth.Table, v *vcf.Variant, index int) (*Call, error) {
	if err := checkAlleles(v); err != nil {
		return nil, err
	}

	end, err := v.End()
	if err != nil {
		return nil, err
	}
	dp, err := recordDepth(v)
	if err != nil {
		return nil, err
	}

	if v.IsRefBlock() {
		if end != v.Pos {
			return nil, gvcferr.Formatf("reference block spans %d-%d; only single-position blocks are supported", v.Pos, end)
		}
		return nil, table.Record(v.Chrom, v.Pos, end, dp)
	}

	if err := table.Record(v.Chrom, v.Pos, end, dp); err != nil {
		return nil, err
	}

	typ, err := variantType(v)
	if err != nil {
		return nil, err
	}
	ro, err := v.IntInfo("RO")
	if err != nil {
		return nil, err
	}
	ao, err := v.IntInfo("AO")
	if err != nil {
		return nil, err
	}

	af, _ := classify.AlleleFrequency(ro, ao)
	return &Call{
		Index:    index,
		Chrom:    v.Chrom,
		Pos:      v.Pos,
		End:      end,
		Ref:      v.Ref,
		Alt:      v.Alt,
		Type:     typ,
		RefReads: ro,
		AltReads: ao,
		AF:       af,
		Decision: r.cfg.Thresholds.Classify(ro, ao, typ),
	}, nil
}

func (r *Reducer) logSummary(sum *Summary) {
	r.logger.Info("reduced gVCF",
		zap.Int("records", sum.Records),
		zap.Int("ref_blocks", sum.RefBlocks),
		zap.Int("discarded", sum.Discarded),
		zap.Int("ambiguous", sum.Ambiguous),
		zap.Int("consensus", sum.Consensus))
	for _, c := range sum.Contigs {
		r.logger.Info("contig coverage",
			zap.String("contig", c.Contig),
			zap.Int64("length", c.Length),
			zap.Int64("masked_bases", c.MaskedBases),
			zap.Int("mask_intervals", c.Intervals),
			zap.Float64("mean_depth", c.MeanDepth),
			zap.Float64("median_depth", c.MedianDepth))
	}
}
