package core

import (
	"encoding/json"
	"testing"
)

func TestExport_DescribesRulesInOrder(t *testing.T) {
	export := DefaultClassifier().Export()

	if export.Version != ExportVersion {
		t.Fatalf("version=%q", export.Version)
	}
	if export.Metadata.RuleCount != 5 {
		t.Fatalf("rule_count=%d want 5", export.Metadata.RuleCount)
	}
	if export.Metadata.SeverityCounts[SeverityBlock] != 4 || export.Metadata.SeverityCounts[SeverityWarn] != 1 {
		t.Fatalf("unexpected severity counts: %#v", export.Metadata.SeverityCounts)
	}

	wantOrder := []string{
		RuleRecursiveForceDelete,
		RulePrivilegedDelete,
		RuleRemoteScriptExecution,
		RuleSystemDirectoryDelete,
		RuleWorldWritableChmod,
	}
	for i, name := range wantOrder {
		if export.Rules[i].Name != name || export.Rules[i].Order != i+1 {
			t.Fatalf("rule %d = %+v, want %s", i, export.Rules[i], name)
		}
	}
	if export.SHA256 != DefaultClassifier().ComputeHash() {
		t.Fatalf("export hash does not match ComputeHash")
	}

	data, err := json.Marshal(export)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["generated_at"]; !ok {
		t.Fatalf("expected snake_case generated_at key, got %s", data)
	}
}

func TestComputeHash_OrderSensitive(t *testing.T) {
	rules := BuiltinRules()
	a := NewClassifier(rules...).ComputeHash()
	b := NewClassifier(BuiltinRules()...).ComputeHash()
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}

	swapped := NewClassifier(rules[1], rules[0], rules[2], rules[3], rules[4]).ComputeHash()
	if swapped == a {
		t.Fatalf("hash should change when evaluation order changes")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}
