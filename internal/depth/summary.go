package depth

import (
	"github.com/montanaflynn/stats"
)

// Summary describes the depth distribution of one contig.
type Summary struct {
	Contig      string
	Length      int64
	MeanDepth   float64
	MedianDepth float64
	MaxDepth    int32
}

// Summarize computes depth statistics for every declared contig.
func (t *Table) Summarize() ([]Summary, error) {
	out := make([]Summary, 0, len(t.names))
	for i, name := range t.names {
		d := t.depths[i]
		s := Summary{Contig: name, Length: int64(len(d))}
		if len(d) == 0 {
			out = append(out, s)
			continue
		}

		data := make(stats.Float64Data, len(d))
		for j, v := range d {
			data[j] = float64(v)
			if v > s.MaxDepth {
				s.MaxDepth = v
			}
		}
		mean, err := data.Mean()
		if err != nil {
			return nil, err
		}
		median, err := data.Median()
		if err != nil {
			return nil, err
		}
		s.MeanDepth = mean
		s.MedianDepth = median
		out = append(out, s)
	}
	return out, nil
}
