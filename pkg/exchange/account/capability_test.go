package account

import "testing"

func TestMintUniqueAddresses(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		cap, err := Mint()
		if err != nil {
			t.Fatalf("mint failed: %v", err)
		}
		hex := cap.Address().Hex()
		if seen[hex] {
			t.Fatalf("duplicate address minted: %s", hex)
		}
		seen[hex] = true
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	original, err := Mint()
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	restored, err := FromPrivateKeyHex(original.PrivateKeyHex())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Address() != original.Address() {
		t.Errorf("address changed across round trip: %s != %s",
			restored.Address().Hex(), original.Address().Hex())
	}
}

func TestFromPrivateKeyHexPrefix(t *testing.T) {
	original, err := Mint()
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	withPrefix := "0x" + original.PrivateKeyHex()
	restored, err := FromPrivateKeyHex(withPrefix)
	if err != nil {
		t.Fatalf("restore with 0x prefix failed: %v", err)
	}
	if restored.Address() != original.Address() {
		t.Error("0x-prefixed key derived a different address")
	}
}

func TestFromPrivateKeyHexInvalid(t *testing.T) {
	if _, err := FromPrivateKeyHex("not-a-key"); err == nil {
		t.Error("expected error for malformed private key")
	}
}
