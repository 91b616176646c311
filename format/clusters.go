package format

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/kmer"
)

const maxLineSize = 256 << 20

// ErrClusterFile is returned for a malformed cluster file.
var ErrClusterFile = errors.New("format: malformed cluster file")

// Occurrence locates one k-mer instance by sequence id and offset.
type Occurrence struct {
	SeqID  string
	Offset int
}

// ClusterRecord is a cluster as stored in a cluster file. Each member is the
// occurrence list of one distinct k-mer.
type ClusterRecord struct {
	Prototype string
	Members   [][]Occurrence
}

// InstanceCount returns the number of occurrences of all members.
func (c *ClusterRecord) InstanceCount() int {
	n := 0
	for _, m := range c.Members {
		n += len(m)
	}
	return n
}

// WriteClusters writes the non-empty clusters. ids maps sequence indices
// to sequence ids.
func WriteClusters(w io.Writer, idx *kmer.Index, clusters []*cluster.Cluster, ids []string) error {
	bw := bufio.NewWriter(w)
	for _, c := range clusters {
		if c.Len() == 0 {
			continue
		}
		writeClusterHeader(bw, c.Len(), c.Prototype.Text)
		for _, h := range c.Members {
			for i, in := range idx.At(h).Instances {
				if i > 0 {
					_ = bw.WriteByte(';')
				}
				_, _ = bw.WriteString(ids[in.Seq])
				_ = bw.WriteByte(':')
				_, _ = bw.WriteString(strconv.Itoa(int(in.Offset)))
			}
			_ = bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteClusterRecords writes records in order.
func WriteClusterRecords(w io.Writer, recs []ClusterRecord) error {
	bw := bufio.NewWriter(w)
	for _, c := range recs {
		writeClusterHeader(bw, len(c.Members), c.Prototype)
		for _, m := range c.Members {
			for i, o := range m {
				if i > 0 {
					_ = bw.WriteByte(';')
				}
				_, _ = fmt.Fprintf(bw, "%s:%d", o.SeqID, o.Offset)
			}
			_ = bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func writeClusterHeader(bw *bufio.Writer, members int, proto string) {
	_, _ = fmt.Fprintf(bw, "Cluster,%d,%s\n", members, proto)
}

// ReadClusters parses a cluster file. A trailing ';' on member lines is
// accepted.
func ReadClusters(r io.Reader) ([]ClusterRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var (
		recs    []ClusterRecord
		pending int
		lineNo  int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if pending == 0 {
			if line == "" {
				continue
			}
			fields := strings.SplitN(line, ",", 3)
			if len(fields) != 3 || fields[0] != "Cluster" {
				return nil, fmt.Errorf("%w: line %d: expected cluster header", ErrClusterFile, lineNo)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: line %d: bad member count %q", ErrClusterFile, lineNo, fields[1])
			}
			recs = append(recs, ClusterRecord{Prototype: fields[2], Members: make([][]Occurrence, 0, n)})
			pending = n
			continue
		}

		member, err := parseMember(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrClusterFile, lineNo, err)
		}
		c := &recs[len(recs)-1]
		c.Members = append(c.Members, member)
		pending--
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, fmt.Errorf("%w: %d members missing at end of file", ErrClusterFile, pending)
	}
	return recs, nil
}

func parseMember(line string) ([]Occurrence, error) {
	line = strings.TrimSuffix(line, ";")
	if line == "" {
		return nil, nil
	}
	parts := strings.Split(line, ";")
	out := make([]Occurrence, 0, len(parts))
	for _, p := range parts {
		// Sequence ids may contain ':'; the offset follows the last one.
		i := strings.LastIndexByte(p, ':')
		if i < 0 {
			return nil, fmt.Errorf("occurrence %q has no offset", p)
		}
		off, err := strconv.Atoi(p[i+1:])
		if err != nil {
			return nil, fmt.Errorf("occurrence %q: %v", p, err)
		}
		out = append(out, Occurrence{SeqID: p[:i], Offset: off})
	}
	return out, nil
}

// LargestClusters returns up to n records ordered by decreasing instance
// count. Equal counts keep file order.
func LargestClusters(recs []ClusterRecord, n int) []ClusterRecord {
	sorted := slices.Clone(recs)
	slices.SortStableFunc(sorted, func(a, b ClusterRecord) int {
		return cmp.Compare(b.InstanceCount(), a.InstanceCount())
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
