package archetype

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ramonehamilton/cr-analysis/internal/storage"
	"github.com/ramonehamilton/cr-analysis/internal/storage/storagetest"
)

var (
	hogCycle = [8]int64{1, 2, 3, 4, 5, 6, 7, 8}
	golemBT  = [8]int64{9, 10, 11, 12, 13, 14, 15, 16}
)

// twoArchetypeStore writes three decks of each of two disjoint card sets.
func twoArchetypeStore(t *testing.T) (path string, groupA, groupB []string) {
	t.Helper()

	b := storagetest.NewBuilder()
	for id := int64(1); id <= 16; id++ {
		b.Card(id, "card")
	}
	for _, level := range []int64{11, 12, 13} {
		groupA = append(groupA, b.DeckOfCards(level, hogCycle))
		groupB = append(groupB, b.DeckOfCards(level, golemBT))
	}

	return b.Write(t), groupA, groupB
}

func TestKMeansProvider_SeparatesArchetypes(t *testing.T) {
	path, groupA, groupB := twoArchetypeStore(t)

	got, err := NewKMeansProvider().Assign(context.Background(), path, 2)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if len(got) != 6 {
		t.Fatalf("expected 6 assignments, got %d", len(got))
	}
	for _, h := range groupA[1:] {
		if got[h] != got[groupA[0]] {
			t.Errorf("deck %s not clustered with its archetype", h)
		}
	}
	for _, h := range groupB[1:] {
		if got[h] != got[groupB[0]] {
			t.Errorf("deck %s not clustered with its archetype", h)
		}
	}
	if got[groupA[0]] == got[groupB[0]] {
		t.Error("expected disjoint card sets in different archetypes")
	}
	for h, id := range got {
		if id < 0 || id >= 2 {
			t.Errorf("deck %s archetype %d outside [0, 2)", h, id)
		}
	}
}

func TestKMeansProvider_Deterministic(t *testing.T) {
	path, _, _ := twoArchetypeStore(t)
	p := NewKMeansProvider()

	first, err := p.Assign(context.Background(), path, 3)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	for run := 0; run < 3; run++ {
		again, err := p.Assign(context.Background(), path, 3)
		if err != nil {
			t.Fatalf("Assign failed: %v", err)
		}
		for h, id := range first {
			if again[h] != id {
				t.Fatalf("run %d: deck %s moved from %d to %d", run, h, id, again[h])
			}
		}
	}
}

func TestKMeansProvider_SkipsIncompleteDecks(t *testing.T) {
	b := storagetest.NewBuilder()
	for id := int64(1); id <= 16; id++ {
		b.Card(id, "card")
	}
	complete := b.DeckOfCards(13, hogCycle)
	other := b.DeckOfCards(13, golemBT)

	known := b.Instance(1, 13, nil)
	broken := b.Deck([8]string{known, known, known, known, known, known, known, "missing"})

	got, err := NewKMeansProvider().Assign(context.Background(), b.Write(t), 2)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, ok := got[broken]; ok {
		t.Error("expected incomplete deck to be absent from the assignment")
	}
	if _, ok := got[complete]; !ok {
		t.Error("expected complete deck to be assigned")
	}
	if _, ok := got[other]; !ok {
		t.Error("expected complete deck to be assigned")
	}
}

func TestKMeansProvider_Errors(t *testing.T) {
	path, _, _ := twoArchetypeStore(t)
	ctx := context.Background()
	p := NewKMeansProvider()

	if _, err := p.Assign(ctx, path, 0); !errors.Is(err, ErrClusteringUnavailable) {
		t.Errorf("k=0: expected ErrClusteringUnavailable, got %v", err)
	}

	if _, err := p.Assign(ctx, path, 7); !errors.Is(err, ErrClusteringUnavailable) {
		t.Errorf("k>decks: expected ErrClusteringUnavailable, got %v", err)
	}

	_, err := p.Assign(ctx, filepath.Join(t.TempDir(), "missing.db"), 2)
	if !errors.Is(err, ErrClusteringUnavailable) || !errors.Is(err, storage.ErrStoreNotFound) {
		t.Errorf("missing store: expected ErrClusteringUnavailable wrapping ErrStoreNotFound, got %v", err)
	}

	empty := storagetest.NewBuilder().Write(t)
	if _, err := p.Assign(ctx, empty, 2); !errors.Is(err, ErrClusteringUnavailable) {
		t.Errorf("empty vocabulary: expected ErrClusteringUnavailable, got %v", err)
	}
}

func TestRenumber(t *testing.T) {
	got := renumber([]int{2, 2, 0, 1, 0})
	want := []int{0, 0, 1, 2, 1}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("renumber() = %v, want %v", got, want)
		}
	}
}

func TestNearest_TieGoesToLowestIndex(t *testing.T) {
	centers := [][]float64{{0, 1}, {1, 0}}
	if got := nearest([]float64{1, 1}, centers); got != 0 {
		t.Errorf("nearest() = %d, want 0", got)
	}
}
