package seal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	a := NewAEAD()
	sealed, err := a.Seal("some secret content", "passphrase")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if sealed == "some secret content" {
		t.Fatal("Seal returned plaintext")
	}
	plain, err := a.Open(sealed, "passphrase")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if plain != "some secret content" {
		t.Errorf("round trip = %q, want original", plain)
	}
}

func TestOpenWrongKeyFails(t *testing.T) {
	a := NewAEAD()
	sealed, err := a.Seal("payload", "right key")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := a.Open(sealed, "wrong key"); err == nil {
		t.Fatal("Open with wrong key succeeded")
	}
}

func TestSealIsRandomized(t *testing.T) {
	a := NewAEAD()
	s1, err := a.Seal("same input", "same key")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	s2, err := a.Seal("same input", "same key")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if s1 == s2 {
		t.Error("two seals of the same input are identical")
	}
}

func TestSealFileInPlace(t *testing.T) {
	a := NewAEAD()
	path := filepath.Join(t.TempDir(), "attachment.bin")
	original := []byte{0, 1, 2, 255, 254, 10, 13, 0}
	if err := os.WriteFile(path, original, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := a.SealFile(path, "file key"); err != nil {
		t.Fatalf("SealFile failed: %v", err)
	}
	sealed, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sealed file: %v", err)
	}
	if bytes.Equal(sealed, original) {
		t.Fatal("file content unchanged after SealFile")
	}
	if err := a.OpenFile(path, "file key"); err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	plain, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read decrypted file: %v", err)
	}
	if !bytes.Equal(plain, original) {
		t.Errorf("file round trip = %v, want %v", plain, original)
	}
}

func TestOpenRejectsTruncatedPayload(t *testing.T) {
	a := NewAEAD()
	if _, err := a.Open("c2hvcnQ=", "key"); err == nil {
		t.Fatal("Open accepted truncated payload")
	}
}
