package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/gvcf-reduce/internal/classify"
	"github.com/inodb/gvcf-reduce/internal/gvcferr"
	"github.com/inodb/gvcf-reduce/internal/mask"
	"github.com/inodb/gvcf-reduce/internal/vcf"
)

const chromLine = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"

// gvcf builds a minimal gVCF with the given contig declarations and records.
// Records are written as "chrom pos ref alt info" separated by spaces.
func gvcf(contigs map[string]int, order []string, records ...string) string {
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.2\n")
	for _, name := range order {
		fmt.Fprintf(&b, "##contig=<ID=%s,length=%d>\n", name, contigs[name])
	}
	b.WriteString(chromLine + "\n")
	for _, r := range records {
		f := strings.Fields(r)
		fmt.Fprintf(&b, "%s\t%s\t.\t%s\t%s\t.\t.\t%s\n", f[0], f[1], f[2], f[3], f[4])
	}
	return b.String()
}

type memSinks struct {
	mask                 bytes.Buffer
	ambiguous, consensus bytes.Buffer
	ambW, conW           *vcf.Writer
}

func newMemSinks() *memSinks {
	m := &memSinks{}
	m.ambW = vcf.NewWriter(&m.ambiguous, false)
	m.conW = vcf.NewWriter(&m.consensus, false)
	return m
}

func (m *memSinks) sinks() Sinks {
	return Sinks{Mask: &m.mask, Ambiguous: m.ambW, Consensus: m.conW}
}

func (m *memSinks) close(t *testing.T) {
	t.Helper()
	require.NoError(t, m.ambW.Close())
	require.NoError(t, m.conW.Close())
}

func reduceString(t *testing.T, cfg Config, input string) (*Result, *memSinks, error) {
	t.Helper()
	parser, err := vcf.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	r, err := NewReducer(cfg)
	require.NoError(t, err)
	r.SetLogger(zaptest.NewLogger(t))

	m := newMemSinks()
	res, err := r.Reduce(parser, m.sinks())
	m.close(t)
	return res, m, err
}

func TestReduce_Classification(t *testing.T) {
	input := gvcf(map[string]int{"c": 10}, []string{"c"},
		"c 1 A <*> DP=20;END=1",
		"c 2 A <*> DP=5",
		"c 3 C T AO=98;DP=100;RO=2;TYPE=snp",
		"c 4 C T AO=1;DP=4;RO=3;TYPE=snp",
		"c 5 CT C AO=1;DP=4;RO=3;TYPE=del",
		"c 7 G A AO=1;DP=10;RO=9;TYPE=snp",
		"c 8 G A AO=0;DP=0;RO=0;TYPE=snp",
	)

	res, m, err := reduceString(t, DefaultConfig(), input)
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Records:   7,
		RefBlocks: 2,
		Discarded: 2,
		Ambiguous: 1,
		Consensus: 2,
		Contigs:   res.Summary.Contigs,
	}, res.Summary)

	assert.Equal(t, []mask.Interval{{Contig: "c", Start: 2, End: 2}, {Contig: "c", Start: 4, End: 6}, {Contig: "c", Start: 8, End: 10}}, res.Mask)
	assert.Equal(t, "c\t2\t2\nc\t4\t6\nc\t8\t10\n", m.mask.String())

	header := "##fileformat=VCFv4.2\n##contig=<ID=c,length=10>\n" + chromLine + "\n"
	assert.Equal(t, header+"c\t4\t.\tC\tT\t.\t.\tAO=1;DP=4;RO=3;TYPE=snp\n", m.ambiguous.String())
	assert.Equal(t, header+
		"c\t3\t.\tC\tT\t.\t.\tAO=98;DP=100;RO=2;TYPE=snp\n"+
		"c\t5\t.\tCT\tC\t.\t.\tAO=1;DP=4;RO=3;TYPE=del\n", m.consensus.String())

	require.Len(t, res.Calls, 5)
	del := res.Calls[2]
	assert.Equal(t, 5, del.Index)
	assert.Equal(t, int64(6), del.End)
	assert.Equal(t, classify.Indel, del.Type)
	assert.Equal(t, classify.Consensus, del.Decision)
	assert.Equal(t, 0.25, del.AF)
	assert.Equal(t, classify.Discard, res.Calls[4].Decision)

	require.Len(t, res.Summary.Contigs, 1)
	cs := res.Summary.Contigs[0]
	assert.Equal(t, int64(7), cs.MaskedBases)
	assert.Equal(t, 3, cs.Intervals)
	assert.Equal(t, int32(100), cs.MaxDepth)
}

func TestReduce_WholeContigMasked(t *testing.T) {
	var records []string
	for pos := 1; pos <= 20; pos++ {
		records = append(records, fmt.Sprintf("contig %d A <*> DP=3", pos))
	}
	res, m, err := reduceString(t, DefaultConfig(), gvcf(map[string]int{"contig": 20}, []string{"contig"}, records...))
	require.NoError(t, err)

	assert.Equal(t, "contig\t1\t20\n", m.mask.String())
	assert.Equal(t, 20, res.Summary.RefBlocks)
	assert.Empty(t, res.Calls)
}

func TestReduce_LaterRecordOverwritesDepth(t *testing.T) {
	input := gvcf(map[string]int{"c": 5}, []string{"c"},
		"c 1 A <*> DP=30",
		"c 2 ACGT A AO=30;DP=30;RO=0;TYPE=del",
		"c 4 G <*> DP=2",
	)
	res, _, err := reduceString(t, DefaultConfig(), input)
	require.NoError(t, err)

	// Position 4 was covered by the deletion at depth 30, then the reference
	// block lowered it to 2.
	assert.Equal(t, []mask.Interval{{Contig: "c", Start: 4, End: 4}}, res.Mask)
}

func TestReduce_ContigOrderAndUntouchedContigs(t *testing.T) {
	input := gvcf(map[string]int{"b": 2, "a": 3}, []string{"b", "a"},
		"a 1 A <*> DP=11",
	)
	res, m, err := reduceString(t, DefaultConfig(), input)
	require.NoError(t, err)

	assert.Equal(t, "b\t1\t2\na\t2\t3\n", m.mask.String())
	require.Len(t, res.Summary.Contigs, 2)
	assert.Equal(t, "b", res.Summary.Contigs[0].Contig)
	assert.Equal(t, "a", res.Summary.Contigs[1].Contig)
}

func TestReduce_MinDepthThreshold(t *testing.T) {
	input := gvcf(map[string]int{"c": 3}, []string{"c"},
		"c 1 A <*> DP=4",
		"c 2 A <*> DP=5",
		"c 3 A <*> DP=6",
	)
	cfg := DefaultConfig()
	cfg.MinDepth = 5
	res, _, err := reduceString(t, cfg, input)
	require.NoError(t, err)
	assert.Equal(t, []mask.Interval{{Contig: "c", Start: 1, End: 1}}, res.Mask)

	cfg.MinDepth = 0
	res, _, err = reduceString(t, cfg, input)
	require.NoError(t, err)
	assert.Empty(t, res.Mask)
}

func TestReduce_TypeInference(t *testing.T) {
	input := gvcf(map[string]int{"c": 20}, []string{"c"},
		"c 1 A AT AO=1;DP=2;RO=1",
		"c 3 A G AO=1;DP=2;RO=1",
		"c 5 AT GC AO=1;DP=2;RO=1;TYPE=mnp",
		"c 7 ATG A AO=1;DP=2;RO=1;TYPE=complex",
		"c 10 AT GC AO=1;DP=2;RO=1;TYPE=complex",
		"c 12 A AT AO=1;DP=2;RO=1;TYPE=ins",
		"c 14 AT A AO=1;DP=2;RO=1;TYPE=indel",
	)
	res, _, err := reduceString(t, DefaultConfig(), input)
	require.NoError(t, err)

	want := []classify.VariantType{
		classify.Indel,
		classify.Substitution,
		classify.Substitution,
		classify.Indel,
		classify.Substitution,
		classify.Indel,
		classify.Indel,
	}
	require.Len(t, res.Calls, len(want))
	for i, c := range res.Calls {
		assert.Equal(t, want[i], c.Type, "record %d", c.Index)
	}
}

func TestReduce_Errors(t *testing.T) {
	contigs := map[string]int{"c": 10}
	order := []string{"c"}

	tests := []struct {
		name      string
		records   []string
		kind      error
		wantIndex int
	}{
		{"multi-allelic", []string{"c 1 A <*> DP=20", "c 2 A G,T AO=5,5;DP=10;RO=0;TYPE=snp,snp"}, gvcferr.ErrFormat, 2},
		{"no alternate", []string{"c 1 A . DP=20"}, gvcferr.ErrFormat, 1},
		{"wide reference block", []string{"c 1 A <*> DP=20;END=3"}, gvcferr.ErrFormat, 1},
		{"missing depth", []string{"c 1 A <*> END=1"}, gvcferr.ErrFormat, 1},
		{"unparseable depth", []string{"c 1 A <*> DP=ten"}, gvcferr.ErrFormat, 1},
		{"missing RO", []string{"c 1 A G AO=3;DP=3;TYPE=snp"}, gvcferr.ErrFormat, 1},
		{"missing AO", []string{"c 1 A G RO=3;DP=3;TYPE=snp"}, gvcferr.ErrFormat, 1},
		{"unknown type", []string{"c 1 A G AO=1;RO=3;DP=3;TYPE=sv"}, gvcferr.ErrFormat, 1},
		{"undeclared contig", []string{"c 1 A <*> DP=20", "x 1 A <*> DP=20"}, gvcferr.ErrRange, 2},
		{"past contig end", []string{"c 10 AT A AO=3;RO=0;DP=3;TYPE=del"}, gvcferr.ErrRange, 1},
		{"zero position", []string{"c 0 A <*> DP=20"}, gvcferr.ErrRange, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := reduceString(t, DefaultConfig(), gvcf(contigs, order, tt.records...))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var recErr *gvcferr.RecordError
			require.True(t, errors.As(err, &recErr), "expected record context, got %v", err)
			assert.Equal(t, tt.wantIndex, recErr.Index)
			assert.Equal(t, 3+tt.wantIndex, recErr.Line)
		})
	}
}

func TestReduce_MalformedLine(t *testing.T) {
	input := gvcf(map[string]int{"c": 10}, []string{"c"}) + "c\tnotanumber\t.\tA\tG\t.\t.\tDP=1\n"
	_, _, err := reduceString(t, DefaultConfig(), input)
	assert.ErrorIs(t, err, gvcferr.ErrFormat)
}

func TestReduce_DuplicateContig(t *testing.T) {
	input := "##contig=<ID=c,length=10>\n##contig=<ID=c,length=12>\n" + chromLine + "\n"
	_, m, err := reduceString(t, DefaultConfig(), input)
	assert.ErrorIs(t, err, gvcferr.ErrConfiguration)
	assert.Zero(t, m.ambiguous.Len(), "nothing is written before contigs are declared")
}

func TestNewReducer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"inverted thresholds", Config{MinDepth: 10, Thresholds: classify.Thresholds{Lower: 0.9, Upper: 0.1}}},
		{"negative depth", Config{MinDepth: -1, Thresholds: classify.DefaultThresholds()}},
		{"threshold above one", Config{MinDepth: 10, Thresholds: classify.Thresholds{Lower: 0.2, Upper: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReducer(tt.cfg)
			assert.ErrorIs(t, err, gvcferr.ErrConfiguration)
		})
	}
}

func TestReduce_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	parser, err := vcf.NewParserFromReader(strings.NewReader(gvcf(map[string]int{"c": 2}, []string{"c"},
		"c 1 A G AO=1;DP=10;RO=9;TYPE=snp",
	)))
	require.NoError(t, err)

	r, err := NewReducer(DefaultConfig())
	require.NoError(t, err)
	r.SetLogger(zap.New(core))

	m := newMemSinks()
	_, err = r.Reduce(parser, m.sinks())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("discarding low-frequency variant").Len())
	summary := logs.FilterMessage("reduced gVCF").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(1), summary[0].ContextMap()["discarded"])
	assert.Equal(t, 1, logs.FilterMessage("contig coverage").Len())
}
