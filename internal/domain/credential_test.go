package domain

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestCredentialEntryEligible(t *testing.T) {
	tests := []struct {
		name       string
		isActive   bool
		isBreached *bool
		want       bool
	}{
		{"active breach unset", true, nil, true},
		{"active breach false", true, boolPtr(false), true},
		{"active breach true", true, boolPtr(true), false},
		{"inactive breach unset", false, nil, false},
		{"inactive breach false", false, boolPtr(false), false},
		{"inactive breach true", false, boolPtr(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := CredentialEntry{LoginID: "100", Password: "pw", IsActive: tt.isActive, IsBreached: tt.isBreached}
			if got := e.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEligibleEntriesPreservesOrder(t *testing.T) {
	g := CredentialGroup{
		Key: "BATCH-1",
		Credentials: []CredentialEntry{
			{LoginID: "1", Password: "a", IsActive: true},
			{LoginID: "2", Password: "b", IsActive: false},
			{LoginID: "3", Password: "c", IsActive: true, IsBreached: boolPtr(true)},
			{LoginID: "4", Password: "d", IsActive: true, IsBreached: boolPtr(false)},
		},
	}

	got := g.EligibleEntries()
	if len(got) != 2 {
		t.Fatalf("expected 2 eligible entries, got %d", len(got))
	}
	if got[0].LoginID != "1" || got[1].LoginID != "4" {
		t.Errorf("unexpected order: %q, %q", got[0].LoginID, got[1].LoginID)
	}
}

func TestPopulatedSections(t *testing.T) {
	d := &ReportDocument{
		Account: 123,
		Summary: map[string]any{"balance": 1000.0},
		Growth:  map[string]any{"total": 1.5},
	}

	got := d.PopulatedSections()
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d: %v", len(got), got)
	}
	if got[0] != "summary" || got[1] != "growth" {
		t.Errorf("unexpected sections: %v", got)
	}
}
