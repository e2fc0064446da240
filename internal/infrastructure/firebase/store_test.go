package firebase

import "testing"

func TestKeyedID(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "SafeBytesPassThrough", key: "tx-An09", want: "sync-tx-An09"},
		{name: "DisallowedByteEscaped", key: "tx.1", want: "sync-tx_2e1"},
		{name: "UnderscoreEscaped", key: "tx_1", want: "sync-tx_5f1"},
		{name: "Slash", key: "a/b", want: "sync-a_2fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyedID(tt.key); got != tt.want {
				t.Errorf("keyedID(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestKeyedID_DistinctKeysStayDistinct(t *testing.T) {
	// Keys differing only in bytes outside the safe set must not merge into
	// one child id, or two external transactions would dedup against each
	// other.
	keys := []string{"tx.1", "tx#1", "tx$1", "tx_1", "tx_2e1", "tx-1", "txa1"}

	seen := make(map[string]string)
	for _, key := range keys {
		id := keyedID(key)
		if prev, ok := seen[id]; ok {
			t.Errorf("keys %q and %q both map to %q", prev, key, id)
		}
		seen[id] = key
	}
}
