package archetype

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ramonehamilton/cr-analysis/internal/storage"
	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// Defaults for KMeansProvider.
const (
	DefaultSeed          = 42
	DefaultMaxIterations = 300
)

// KMeansProvider clusters decks with k-means over multi-hot card vectors.
//
// The vocabulary is every card in card_metadata ordered by id. Decks are
// encoded in deck-hash order, ties in distance go to the lowest cluster, and
// clusters are renumbered by first appearance in deck-hash order, so a fixed
// store and k always produce the same assignment.
type KMeansProvider struct {
	Seed          uint64
	MaxIterations int
}

// NewKMeansProvider creates a provider with default seed and iteration limit.
func NewKMeansProvider() *KMeansProvider {
	return &KMeansProvider{
		Seed:          DefaultSeed,
		MaxIterations: DefaultMaxIterations,
	}
}

// Assign loads the store and clusters every deck whose instances resolve.
func (p *KMeansProvider) Assign(ctx context.Context, storePath string, k int) (Assignment, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrClusteringUnavailable, k)
	}

	tables, err := storage.Load(ctx, storePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClusteringUnavailable, err)
	}

	deckHashes, vectors, err := Encode(tables)
	if err != nil {
		return nil, err
	}
	if len(vectors) < k {
		return nil, fmt.Errorf("%w: %d decks cannot form %d clusters", ErrClusteringUnavailable, len(vectors), k)
	}

	labels := p.cluster(vectors, k)

	assignment := make(Assignment, len(deckHashes))
	for i, h := range deckHashes {
		assignment[h] = labels[i]
	}
	return assignment, nil
}

// Encode builds one multi-hot vector per resolvable deck, in deck-hash order.
// Decks with an unresolvable instance are skipped.
func Encode(tables *storage.Tables) ([]string, [][]float64, error) {
	vocabulary := make(map[int64]int, len(tables.CardMetadata))
	for _, c := range tables.CardMetadata {
		if _, ok := vocabulary[c.ID]; !ok {
			vocabulary[c.ID] = len(vocabulary)
		}
	}
	if len(vocabulary) == 0 {
		return nil, nil, fmt.Errorf("%w: card vocabulary is empty", ErrClusteringUnavailable)
	}

	instances := tables.InstanceIndex()
	seen := make(map[string]bool, len(tables.Decks))

	var (
		deckHashes []string
		vectors    [][]float64
	)
	for _, d := range sortedDecks(tables.Decks) {
		if seen[d.DeckHash] {
			continue
		}
		seen[d.DeckHash] = true

		vec := make([]float64, len(vocabulary))
		ok := true
		for _, h := range d.InstanceHashes {
			ci, found := instances[h]
			if !found {
				ok = false
				break
			}
			if idx, known := vocabulary[ci.CardTypeID]; known {
				vec[idx] = 1
			}
		}
		if !ok {
			continue
		}

		deckHashes = append(deckHashes, d.DeckHash)
		vectors = append(vectors, vec)
	}

	return deckHashes, vectors, nil
}

// cluster runs k-means++ seeding followed by Lloyd iterations and returns
// canonical labels for each vector.
func (p *KMeansProvider) cluster(vectors [][]float64, k int) []int {
	seed := p.Seed
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	centers := seedCenters(vectors, k, rng)

	labels := make([]int, len(vectors))
	for i := range labels {
		labels[i] = -1
	}

	dim := len(vectors[0])
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vectors {
			c := nearest(v, centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			floats.Add(sums[labels[i]], v)
			counts[labels[i]]++
		}
		for c := range centers {
			// An empty cluster keeps its previous center.
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centers[c] = sums[c]
		}
	}

	return renumber(labels)
}

// seedCenters picks k initial centers with k-means++.
func seedCenters(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := vectors[rng.IntN(len(vectors))]
	centers = append(centers, append([]float64(nil), first...))

	dist := make([]float64, len(vectors))
	for len(centers) < k {
		total := 0.0
		for i, v := range vectors {
			d := floats.Distance(v, centers[nearest(v, centers)], 2)
			dist[i] = d * d
			total += dist[i]
		}

		next := 0
		if total == 0 {
			next = rng.IntN(len(vectors))
		} else {
			target := rng.Float64() * total
			for i, d := range dist {
				if d == 0 {
					continue
				}
				next = i
				target -= d
				if target < 0 {
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), vectors[next]...))
	}

	return centers
}

// nearest returns the index of the closest center, lowest index on ties.
func nearest(v []float64, centers [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		d := floats.Distance(v, center, 2)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// renumber relabels clusters in order of first appearance.
func renumber(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}

func sortedDecks(decks []*models.Deck) []*models.Deck {
	sorted := make([]*models.Deck, len(decks))
	copy(sorted, decks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DeckHash < sorted[j].DeckHash
	})
	return sorted
}
