package codec

import (
	"testing"

	"adastore/blockhash"
)

func TestGenesisTableLookup(t *testing.T) {
	var mainnet blockhash.Hash
	mainnet[0] = 0x01
	table := GenesisTable{"mainnet": mainnet}

	got, ok := table.Lookup("mainnet")
	if !ok || got != mainnet {
		t.Fatalf("expected mainnet lookup to succeed with %x, got %x ok=%v", mainnet, got, ok)
	}

	if _, ok := table.Lookup("unknown"); ok {
		t.Fatalf("expected lookup of unknown network to fail")
	}
}
