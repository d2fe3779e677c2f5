package services

import "github.com/ersonp/sheetlink/internal/domain/entities"

// linkGraph is the undirected adjacency of the stored links, built once per
// grouping pass.
type linkGraph struct {
	adjacency map[string][]string
}

func newLinkGraph(links []entities.RecordLink) *linkGraph {
	g := &linkGraph{adjacency: make(map[string][]string)}
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		if l.Record1ID == l.Record2ID {
			continue
		}
		key := l.PairKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		g.adjacency[l.Record1ID] = append(g.adjacency[l.Record1ID], l.Record2ID)
		g.adjacency[l.Record2ID] = append(g.adjacency[l.Record2ID], l.Record1ID)
	}
	return g
}

func (g *linkGraph) neighbors(id string) []string {
	return g.adjacency[id]
}

func (g *linkGraph) hasEdges(id string) bool {
	return len(g.adjacency[id]) > 0
}

// component walks the graph breadth-first from seed and returns the records
// reached, seed first. Records for which skip returns true are neither
// collected nor walked through. Every collected record is marked in visited.
func (g *linkGraph) component(seed string, visited map[string]bool, skip func(string) bool) []string {
	queue := []string{seed}
	visited[seed] = true
	var members []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		members = append(members, current)

		for _, next := range g.neighbors(current) {
			if visited[next] || skip(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return members
}
