package notification

import "testing"

func TestIsValidType(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		valid bool
	}{
		{name: "Transaction", typ: TypeTransaction, valid: true},
		{name: "Banking", typ: TypeBanking, valid: true},
		{name: "System", typ: TypeSystem, valid: true},
		{name: "Unknown", typ: "marketing", valid: false},
		{name: "Empty", typ: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidType(tt.typ); got != tt.valid {
				t.Errorf("IsValidType(%q) = %v, want %v", tt.typ, got, tt.valid)
			}
		})
	}
}
