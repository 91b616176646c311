package cluster

import (
	"cmp"
	"slices"
	"sync"

	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/kmer"
)

// Prototype is the representative k-mer of a cluster. Prototypes are
// compared by Text.
type Prototype struct {
	Text  string
	Codes []uint32
	// Size is the number of k-mer occurrences the prototype stands for.
	Size int
}

// NewPrototype creates a prototype for text.
func NewPrototype(enc kmer.Encoder, text string, size int) Prototype {
	return Prototype{Text: text, Codes: kmer.Encode(enc, text), Size: size}
}

// PrototypeOf copies the identity of km into a new prototype.
func PrototypeOf(km *kmer.Kmer) Prototype {
	return Prototype{Text: km.Text, Codes: km.Codes}
}

// Cluster is a prototype and the handles of its member k-mers.
type Cluster struct {
	Prototype Prototype
	Members   []int32

	mu sync.Mutex
}

// New returns an empty cluster. expected is a capacity hint.
func New(p Prototype, expected int) *Cluster {
	return &Cluster{
		Prototype: p,
		Members:   make([]int32, 0, expected),
	}
}

// Add appends a member. Not safe for concurrent use.
func (c *Cluster) Add(h int32) {
	c.Members = append(c.Members, h)
}

// AddParallel appends a member under the cluster lock.
func (c *Cluster) AddParallel(h int32) {
	c.mu.Lock()
	c.Members = append(c.Members, h)
	c.mu.Unlock()
}

// Len returns the number of member k-mers.
func (c *Cluster) Len() int { return len(c.Members) }

// InstanceCount returns the number of occurrences of all members.
func (c *Cluster) InstanceCount(idx *kmer.Index) int {
	n := 0
	for _, h := range c.Members {
		n += len(idx.At(h).Instances)
	}
	return n
}

// DistanceTo returns the distance between the prototype and codes.
func (c *Cluster) DistanceTo(table *distance.Table, codes []uint32, k int) int {
	return table.Distance(c.Prototype.Codes, codes, k)
}

// Codebook is a set of clusters built with one k-mer length and threshold.
type Codebook struct {
	K         int
	Threshold int
	Clusters  []*Cluster
}

// Prototypes returns the prototypes in cluster order, skipping those with
// zero size.
func (cb *Codebook) Prototypes() []Prototype {
	out := make([]Prototype, 0, len(cb.Clusters))
	for _, c := range cb.Clusters {
		if c.Prototype.Size > 0 {
			out = append(out, c.Prototype)
		}
	}
	return out
}

// Largest returns up to n clusters ordered by decreasing prototype size.
// Equal sizes keep codebook order.
func (cb *Codebook) Largest(n int) []*Cluster {
	sorted := slices.Clone(cb.Clusters)
	slices.SortStableFunc(sorted, func(a, b *Cluster) int {
		return cmp.Compare(b.Prototype.Size, a.Prototype.Size)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// MergePrototypes merges prototype lists by text, summing sizes. The result
// keeps first-seen order.
func MergePrototypes(lists ...[]Prototype) []Prototype {
	pos := make(map[string]int)
	var out []Prototype
	for _, list := range lists {
		for _, p := range list {
			if i, ok := pos[p.Text]; ok {
				out[i].Size += p.Size
				continue
			}
			pos[p.Text] = len(out)
			out = append(out, p)
		}
	}
	return out
}
