package discovery

import "testing"

func TestParseTXTRecord(t *testing.T) {
	records := []string{"Name=Living Room", "UniqueIdentifier=AA:BB:CC:DD:EE:FF", "txtvers=1"}
	got := ParseTXTRecord(records)

	if got.Name != "Living Room" {
		t.Errorf("Name = %q, want %q", got.Name, "Living Room")
	}
	if got.UniqueIdentifier != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("UniqueIdentifier = %q, want %q", got.UniqueIdentifier, "AA:BB:CC:DD:EE:FF")
	}
	if got.Raw["txtvers"] != "1" {
		t.Errorf("Raw[txtvers] = %q, want %q", got.Raw["txtvers"], "1")
	}
}

func TestParseTXT_IgnoresMalformedEntries(t *testing.T) {
	got := ParseTXT([]string{"noequalssign", "=emptykey", "k=v"})
	if len(got) != 1 || got["k"] != "v" {
		t.Fatalf("ParseTXT = %v, want map with only k=v", got)
	}
}
