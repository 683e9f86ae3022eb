package sequence

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

var headerIDPattern = regexp.MustCompile(`\|(.+?)\|`)

// HeaderIDs extracts the accession between the first pair of bars of every FASTA
// header line, in file order.
func HeaderIDs(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var ids []string
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, ">") {
			continue
		}
		if m := headerIDPattern.FindStringSubmatch(line); m != nil {
			ids = append(ids, m[1])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan fasta: %w", err)
	}
	return ids, nil
}

// SymmetricDifference returns ids present in exactly one of the two sets, sorted.
func SymmetricDifference(expected, found []string) []string {
	in := func(list []string) map[string]struct{} {
		m := make(map[string]struct{}, len(list))
		for _, s := range list {
			m[s] = struct{}{}
		}
		return m
	}
	e, f := in(expected), in(found)

	var diff []string
	for id := range e {
		if _, ok := f[id]; !ok {
			diff = append(diff, id)
		}
	}
	for id := range f {
		if _, ok := e[id]; !ok {
			diff = append(diff, id)
		}
	}
	sort.Strings(diff)
	return diff
}

type CheckReport struct {
	Expected   int
	Found      int
	Difference []string
}

func Check(expected []string, fasta io.Reader) (*CheckReport, error) {
	found, err := HeaderIDs(fasta)
	if err != nil {
		return nil, err
	}
	expected = UniqueIDs(expected)
	found = UniqueIDs(found)

	return &CheckReport{
		Expected:   len(expected),
		Found:      len(found),
		Difference: SymmetricDifference(expected, found),
	}, nil
}

// Print writes the console report of the check stage.
func (r *CheckReport) Print(w io.Writer) {
	fmt.Fprintf(w, "expected identifiers: %d\n", r.Expected)
	fmt.Fprintf(w, "identifiers in fasta: %d\n", r.Found)
	if len(r.Difference) == 0 {
		fmt.Fprintln(w, "no difference")
		return
	}
	fmt.Fprintf(w, "difference (%d): %s\n", len(r.Difference), strings.Join(r.Difference, ", "))
}
