package securefield_test

import (
	"strings"
	"testing"

	"github.com/iliyamo/ticket-resale-market/internal/securefield"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec, err := securefield.NewCodec(testKey)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	inputs := []string{
		"12-34-56",
		"00000000",
		"",
		"a",
		strings.Repeat("9", 256),
		"unicode £ sort code ✓",
	}
	for _, in := range inputs {
		f, err := codec.Encrypt(in)
		if err != nil {
			t.Fatalf("encrypt %q: %v", in, err)
		}
		out, err := codec.Decrypt(f)
		if err != nil {
			t.Fatalf("decrypt %q: %v", in, err)
		}
		if out != in {
			t.Errorf("round trip mismatch: got %q want %q", out, in)
		}
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	codec, err := securefield.NewCodec(testKey)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	a, err := codec.Encrypt("12-34-56")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := codec.Encrypt("12-34-56")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a.IV == b.IV {
		t.Errorf("expected distinct IVs across calls, both were %s", a.IV)
	}
	if a.Ciphertext == b.Ciphertext {
		t.Errorf("expected distinct ciphertexts for same plaintext under fresh IVs")
	}
}

func TestNewCodecRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "abcd", "zz" + testKey[2:], testKey + "00"} {
		if _, err := securefield.NewCodec(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestDecryptRejectsMangledField(t *testing.T) {
	codec, err := securefield.NewCodec(testKey)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	f, err := codec.Encrypt("40-47-13")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := codec.Decrypt(securefield.Field{IV: "nothex", Ciphertext: f.Ciphertext}); err == nil {
		t.Errorf("expected error for non-hex IV")
	}
	if _, err := codec.Decrypt(securefield.Field{IV: f.IV[:8], Ciphertext: f.Ciphertext}); err == nil {
		t.Errorf("expected error for short IV")
	}
	if _, err := codec.Decrypt(securefield.Field{IV: f.IV, Ciphertext: "nothex"}); err == nil {
		t.Errorf("expected error for non-hex ciphertext")
	}
}
