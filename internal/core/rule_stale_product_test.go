package core

import (
	"context"
	"strings"
	"testing"
)

func TestStaleProductRuleReportsMissingParents(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewRulesEngine())
	a, _, _ := svc.CreateLeaf(ctx, "a", 0, 1)
	b, _, _ := svc.CreateLeaf(ctx, "b", 1, 1)
	prod, _, _ := svc.CreateProduct(ctx, "joint", []DistributionID{a.ID, b.ID})
	if _, err := svc.DeleteDistribution(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var res Result
	err := svc.Store().View(ctx, func(view TransactionView) error {
		var err error
		res, err = NewStaleProductRule().Evaluate(ctx, view, nil)
		return err
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", res.Violations)
	}
	v := res.Violations[0]
	if v.Rule != "stale_products" || v.Severity != SeverityWarn || v.EntityID != prod.ID {
		t.Fatalf("unexpected violation %+v", v)
	}
	if !strings.Contains(v.Message, "joint is frozen") {
		t.Fatalf("unexpected message %q", v.Message)
	}
	if res.HasBlocking() {
		t.Fatalf("stale products must not block commits")
	}
}

func TestDefaultRulesEngineRegistersStaleProducts(t *testing.T) {
	rules := NewDefaultRulesEngine().Rules()
	if len(rules) != 1 || rules[0] != "stale_products" {
		t.Fatalf("unexpected default rules %v", rules)
	}
	if len(NewRulesEngine().Rules()) != 0 {
		t.Fatalf("expected empty engine")
	}
}
