package memory

import (
	"context"
	"math"
	"testing"

	"pdfcore/pkg/domain"
)

func mustLeaf(t *testing.T, store *Store, name string, mean, std float64) Distribution {
	t.Helper()
	var out Distribution
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		out, err = tx.CreateLeaf(name, mean, std)
		return err
	}); err != nil {
		t.Fatalf("create leaf %s: %v", name, err)
	}
	return out
}

func mustProduct(t *testing.T, store *Store, parents ...DistributionID) Distribution {
	t.Helper()
	var out Distribution
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		out, err = tx.CreateProduct("product", parents)
		return err
	}); err != nil {
		t.Fatalf("create product %v: %v", parents, err)
	}
	return out
}

func mustSet(t *testing.T, store *Store, id DistributionID, mean, std float64) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.SetParameters(id, mean, std)
		return err
	}); err != nil {
		t.Fatalf("set %d: %v", id, err)
	}
}

func mustDelete(t *testing.T, store *Store, id DistributionID) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteDistribution(id)
	}); err != nil {
		t.Fatalf("delete %d: %v", id, err)
	}
}

func approx(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}
