package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type blockingRule struct{}

func (blockingRule) Name() string { return "no_wide" }

func (blockingRule) Evaluate(_ context.Context, view RuleView, _ []Change) (Result, error) {
	var res Result
	for _, d := range view.ListDistributions() {
		if d.StdDev > 10 {
			res.Violations = append(res.Violations, Violation{Rule: "no_wide", Severity: SeverityBlock, Message: "too wide", Entity: EntityDistribution, EntityID: d.ID})
		}
	}
	return res, nil
}

type testPlugin struct {
	name string
	err  error
}

func (p testPlugin) Name() string    { return p.name }
func (p testPlugin) Version() string { return "1.0.0" }

func (p testPlugin) Register(r *PluginRegistry) error {
	if p.err != nil {
		return p.err
	}
	r.RegisterRule(blockingRule{})
	r.RegisterRule(nil)
	r.RegisterSchema("distribution", map[string]any{"type": "object"})
	r.RegisterSchema("", map[string]any{"ignored": true})
	return nil
}

func TestInstallPluginWiresRules(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())

	meta, err := svc.InstallPlugin(testPlugin{name: "wide"})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(meta.Rules) != 1 || meta.Rules[0] != "no_wide" {
		t.Fatalf("unexpected rules %v", meta.Rules)
	}
	if _, ok := meta.Schemas["distribution"]; !ok || len(meta.Schemas) != 1 {
		t.Fatalf("unexpected schemas %v", meta.Schemas)
	}

	_, _, err = svc.CreateLeaf(ctx, "wide", 0, 20)
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(svc.List()) != 0 {
		t.Fatalf("blocked create must not commit")
	}

	if _, err := svc.InstallPlugin(testPlugin{name: "wide"}); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := svc.InstallPlugin(nil); err == nil {
		t.Fatalf("expected nil plugin rejection")
	}
	if _, err := svc.InstallPlugin(testPlugin{name: "broken", err: errors.New("boom")}); err == nil {
		t.Fatalf("expected register error to surface")
	}

	if _, err := svc.InstallPlugin(testPlugin{name: "another"}); err != nil {
		t.Fatalf("install second: %v", err)
	}
	plugins := svc.RegisteredPlugins()
	if len(plugins) != 2 || plugins[0].Name != "another" || plugins[1].Name != "wide" {
		t.Fatalf("expected plugins sorted by name, got %+v", plugins)
	}
}

func TestPluginRegistryCopies(t *testing.T) {
	reg := NewPluginRegistry()
	schema := map[string]any{"type": "object"}
	reg.RegisterSchema("distribution", schema)
	schema["type"] = "mutated"
	out := reg.Schemas()
	if out["distribution"]["type"] != "object" {
		t.Fatalf("registry must clone schemas on register")
	}
	out["distribution"]["type"] = "changed"
	if reg.Schemas()["distribution"]["type"] != "object" {
		t.Fatalf("Schemas must return copies")
	}
	reg.RegisterRule(blockingRule{})
	rules := reg.Rules()
	rules[0] = nil
	if reg.Rules()[0] == nil {
		t.Fatalf("Rules must return a copy")
	}
}
