package aaclust

import (
	"cmp"
	"slices"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/format"
)

// Selection is a subset of a codebook.
type Selection struct {
	Clusters   []format.ClusterRecord
	Prototypes []cluster.Prototype
}

// Pick keeps the n clusters with the most k-mer occurrences, largest first.
// Prototypes are looked up in protos by text. A prototype missing from protos
// is sized by the occurrences of its cluster.
func Pick(clusters []format.ClusterRecord, protos []cluster.Prototype, n int) *Selection {
	return newSelection(format.LargestClusters(clusters, n), protos)
}

// ClassLabels maps sequence ids to the class labels of their records.
// Records without labels are left out.
func ClassLabels(recs []*fasta.Record) map[string][]string {
	labels := make(map[string][]string, len(recs))
	for _, r := range recs {
		if len(r.Classes) > 0 {
			labels[r.ID] = r.Classes
		}
	}
	return labels
}

// PickByClass keeps, for every class label, the n clusters with the most
// occurrences in sequences of that class. Classes are visited in sorted
// order and a cluster chosen by an earlier class is not repeated. Within a
// class equal counts keep file order.
func PickByClass(clusters []format.ClusterRecord, protos []cluster.Prototype, labels map[string][]string, n int) *Selection {
	// counts[class][i] is the number of occurrences of cluster i in class.
	counts := make(map[string]map[int]int)
	for i, c := range clusters {
		for _, m := range c.Members {
			for _, o := range m {
				for _, class := range labels[o.SeqID] {
					byCluster, ok := counts[class]
					if !ok {
						byCluster = make(map[int]int)
						counts[class] = byCluster
					}
					byCluster[i]++
				}
			}
		}
	}

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	slices.Sort(classes)

	picked := make(map[int]bool)
	var out []format.ClusterRecord
	for _, class := range classes {
		byCluster := counts[class]
		order := make([]int, 0, len(byCluster))
		for i := range byCluster {
			order = append(order, i)
		}
		slices.SortFunc(order, func(a, b int) int {
			if c := cmp.Compare(byCluster[b], byCluster[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		if n >= 0 && n < len(order) {
			order = order[:n]
		}
		for _, i := range order {
			if !picked[i] {
				picked[i] = true
				out = append(out, clusters[i])
			}
		}
	}
	return newSelection(out, protos)
}

func newSelection(recs []format.ClusterRecord, protos []cluster.Prototype) *Selection {
	byText := make(map[string]cluster.Prototype, len(protos))
	for _, p := range protos {
		if _, ok := byText[p.Text]; !ok {
			byText[p.Text] = p
		}
	}

	sel := &Selection{Clusters: recs}
	for _, c := range sel.Clusters {
		p, ok := byText[c.Prototype]
		if !ok {
			p = cluster.Prototype{Text: c.Prototype, Size: c.InstanceCount()}
		}
		sel.Prototypes = append(sel.Prototypes, p)
	}
	return sel
}
