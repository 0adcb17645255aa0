// Package seal provides the symmetric-encryption capability the creation
// pipeline depends on. The pipeline only ever sees the Cipher interface;
// the AEAD implementation is wired in at the edge.
package seal

// Cipher encrypts a string or a file in place under a passphrase. The
// pipeline treats it as an opaque capability: any failure aborts the
// request with a crypto error.
type Cipher interface {
	Seal(plaintext, key string) (string, error)
	SealFile(path, key string) error
}
