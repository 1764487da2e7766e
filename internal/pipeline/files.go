package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/gvcf-reduce/internal/gvcferr"
	"github.com/inodb/gvcf-reduce/internal/vcf"
)

// Outputs names the three output files of a reduction. Variant outputs
// whose path ends in .gz are BGZF-compressed.
type Outputs struct {
	Mask      string
	Ambiguous string
	Consensus string
}

// Validate requires every output path to be set and distinct.
func (o Outputs) Validate() error {
	paths := []struct{ name, path string }{
		{"mask", o.Mask},
		{"ambiguous", o.Ambiguous},
		{"consensus", o.Consensus},
	}
	seen := make(map[string]string)
	for _, np := range paths {
		name, p := np.name, np.path
		if p == "" {
			return gvcferr.Configurationf("%s output path is required", name)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s output path: %w", name, err)
		}
		if other, ok := seen[abs]; ok {
			return gvcferr.Configurationf("%s and %s outputs share path %s", other, name, p)
		}
		seen[abs] = name
	}
	return nil
}

// stagedFile is written under a temporary name next to its final path and
// only renamed into place on commit.
type stagedFile struct {
	path string
	f    *os.File
}

func stage(path string) (*stagedFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create staging file for %s: %w", path, err)
	}
	return &stagedFile{path: path, f: f}, nil
}

func (s *stagedFile) commit() error {
	if err := s.f.Close(); err != nil {
		os.Remove(s.f.Name())
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	if err := os.Rename(s.f.Name(), s.path); err != nil {
		os.Remove(s.f.Name())
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}

func (s *stagedFile) abort() {
	s.f.Close()
	os.Remove(s.f.Name())
}

// ReduceFile reduces the gVCF at inputPath into out. Outputs are staged and
// appear at their final paths only if the whole input reduces without error;
// on failure nothing is written to any output path.
func (r *Reducer) ReduceFile(inputPath string, out Outputs) (res *Result, err error) {
	if err := out.Validate(); err != nil {
		return nil, err
	}

	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	var staged []*stagedFile
	defer func() {
		if err != nil {
			for _, s := range staged {
				s.abort()
			}
		}
	}()
	for _, p := range []string{out.Mask, out.Ambiguous, out.Consensus} {
		s, err := stage(p)
		if err != nil {
			return nil, err
		}
		staged = append(staged, s)
	}

	ambiguous := vcf.NewWriter(staged[1].f, isCompressed(out.Ambiguous))
	consensus := vcf.NewWriter(staged[2].f, isCompressed(out.Consensus))

	res, err = r.Reduce(parser, Sinks{
		Mask:      staged[0].f,
		Ambiguous: ambiguous,
		Consensus: consensus,
	})
	if err != nil {
		return nil, err
	}
	if err = errors.Join(ambiguous.Close(), consensus.Close()); err != nil {
		return nil, fmt.Errorf("flush variant outputs: %w", err)
	}

	for i, s := range staged {
		if err = s.commit(); err != nil {
			// Files already renamed are complete; the rest are removed.
			for _, rest := range staged[i+1:] {
				rest.abort()
			}
			staged = nil
			return nil, err
		}
	}
	return res, nil
}

func isCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}
