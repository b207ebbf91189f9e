package compress

import (
	"sort"
	"strconv"

	"github.com/knotlang/knot/kn/types"
)

// quantumStrategy clusters the relationship graph into coherence-kind
// partitions. Relationship edges are treated as unit-weight undirected
// links for clustering only. Clustering is a greedy modularity pass: each
// entity starts in its own cluster and nodes move, in lexicographic id
// order, to the neighboring cluster that most improves modularity, until a
// sweep changes nothing. A cluster becomes a partition when its internal
// edge density exceeds its external density by the configured ratio.
type quantumStrategy struct{}

func (quantumStrategy) Stage() types.ExpandStage { return types.StagePartitions }

const maxModularitySweeps = 16

func (quantumStrategy) Apply(doc *types.Document, opts Options) ([]string, bool) {
	// A document that already carries synthesized partitions is fully
	// clustered; rebuilding the residual graph would shift densities and
	// break idempotence.
	for _, p := range doc.Partitions {
		if p.Synthesized {
			return nil, false
		}
	}

	skip := make(map[string]bool)
	for _, id := range doc.Preserve {
		skip[id] = true
	}
	g := buildGraph(doc, skip)
	if len(g.nodes) < opts.MinClusterSize {
		return nil, false
	}

	cluster := g.greedyModularity()

	byCluster := make(map[int][]string)
	for id, c := range cluster {
		byCluster[c] = append(byCluster[c], id)
	}
	var clusterIDs []int
	for c := range byCluster {
		sort.Strings(byCluster[c])
		clusterIDs = append(clusterIDs, c)
	}
	// Order clusters by their smallest member so output is reproducible.
	sort.Slice(clusterIDs, func(i, j int) bool {
		return byCluster[clusterIDs[i]][0] < byCluster[clusterIDs[j]][0]
	})

	var names []string
	for _, c := range clusterIDs {
		members := byCluster[c]
		if len(members) < opts.MinClusterSize {
			continue
		}
		if !g.denseEnough(members, opts.DensityRatio) {
			continue
		}
		label := freePartitionLabel(doc, "part_"+members[0])
		doc.Partitions = append(doc.Partitions, &types.QuantumPartition{
			Kind:        types.BoundaryCoherence,
			Label:       label,
			Members:     members,
			Synthesized: true,
		})
		names = append(names, label)
	}
	return names, len(names) > 0
}

type relGraph struct {
	nodes []string
	adj   map[string]map[string]float64
}

func buildGraph(doc *types.Document, skip map[string]bool) *relGraph {
	g := &relGraph{adj: make(map[string]map[string]float64)}
	add := func(a, b string) {
		if a == b || skip[a] || skip[b] {
			return
		}
		if _, ok := doc.Entities[a]; !ok {
			return
		}
		if _, ok := doc.Entities[b]; !ok {
			return
		}
		if g.adj[a] == nil {
			g.adj[a] = make(map[string]float64)
		}
		if g.adj[b] == nil {
			g.adj[b] = make(map[string]float64)
		}
		g.adj[a][b]++
		g.adj[b][a]++
	}
	for _, rel := range doc.Relationships {
		for _, s := range rel.Sources {
			for _, t := range rel.Targets {
				add(s, t)
			}
		}
	}
	for id := range g.adj {
		g.nodes = append(g.nodes, id)
	}
	sort.Strings(g.nodes)
	return g
}

// greedyModularity assigns each node a cluster id. Moves are evaluated in
// lexicographic node order and ties between equally scoring clusters go to
// the one containing the lexicographically smallest entity id.
func (g *relGraph) greedyModularity() map[string]int {
	cluster := make(map[string]int, len(g.nodes))
	for i, id := range g.nodes {
		cluster[id] = i
	}
	total := 0.0
	degree := make(map[string]float64, len(g.nodes))
	for id, nbrs := range g.adj {
		for _, w := range nbrs {
			degree[id] += w
			total += w
		}
	}
	if total == 0 {
		return cluster
	}

	clusterDegree := make(map[int]float64, len(g.nodes))
	for id, c := range cluster {
		clusterDegree[c] += degree[id]
	}
	smallest := func(c int) string {
		best := ""
		for _, id := range g.nodes {
			if cluster[id] == c && (best == "" || id < best) {
				best = id
			}
		}
		return best
	}

	for sweep := 0; sweep < maxModularitySweeps; sweep++ {
		moved := false
		for _, id := range g.nodes {
			current := cluster[id]
			weightTo := make(map[int]float64)
			for nbr, w := range g.adj[id] {
				weightTo[cluster[nbr]] += w
			}
			bestCluster, bestGain := current, 0.0
			var options []int
			for c := range weightTo {
				options = append(options, c)
			}
			sort.Ints(options)
			for _, c := range options {
				if c == current {
					continue
				}
				gain := modularityGain(id, c, current, weightTo, degree, clusterDegree, total)
				if gain > bestGain ||
					(gain == bestGain && gain > 0 && smallest(c) < smallest(bestCluster)) {
					bestCluster, bestGain = c, gain
				}
			}
			if bestCluster != current {
				clusterDegree[current] -= degree[id]
				clusterDegree[bestCluster] += degree[id]
				cluster[id] = bestCluster
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return cluster
}

// modularityGain scores moving id from its current cluster to c, using the
// standard degree-corrected modularity delta.
func modularityGain(id string, c, current int, weightTo map[int]float64, degree map[string]float64, clusterDegree map[int]float64, total float64) float64 {
	gainIn := weightTo[c]/total - degree[id]*clusterDegree[c]/(total*total)
	lossOut := weightTo[current]/total - degree[id]*(clusterDegree[current]-degree[id])/(total*total)
	return gainIn - lossOut
}

// denseEnough accepts a cluster when internal edge density is at least
// ratio times the density of its edges to the rest of the graph. A cluster
// with no external edges always qualifies.
func (g *relGraph) denseEnough(members []string, ratio float64) bool {
	inside := make(map[string]bool, len(members))
	for _, m := range members {
		inside[m] = true
	}
	var internal, external float64
	for _, m := range members {
		for nbr, w := range g.adj[m] {
			if inside[nbr] {
				internal += w // counted twice, once from each end
			} else {
				external += w
			}
		}
	}
	internal /= 2
	n := float64(len(members))
	if n < 2 {
		return false
	}
	intraDensity := internal / (n * (n - 1) / 2)
	if external == 0 {
		return internal > 0
	}
	outside := float64(len(g.nodes)) - n
	if outside == 0 {
		return internal > 0
	}
	interDensity := external / (n * outside)
	return intraDensity >= ratio*interDensity
}

func freePartitionLabel(doc *types.Document, want string) string {
	taken := func(label string) bool {
		for _, p := range doc.Partitions {
			if p.Label == label {
				return true
			}
		}
		return false
	}
	if !taken(want) {
		return want
	}
	for n := 2; ; n++ {
		label := want + "_" + strconv.Itoa(n)
		if !taken(label) {
			return label
		}
	}
}
