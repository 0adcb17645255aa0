package svc

import (
	"strconv"

	"macrobin/metrics"
	"macrobin/pkg/domain"
)

// applyEncryptionPolicy resolves which key, if any, encrypts the content
// and the on-disk attachment, and wraps the uploader passphrase for the
// one-time retrieval flow.
//
//	encrypt_server  encrypt_client  behavior
//	false           *               stored as received
//	true            false           content/file encrypted under plain_key
//	true            true            already client-encrypted in transit;
//	                                re-encrypted under random_key
//
// Readonly pastas never get their content or file encrypted here; for
// them plain_key only feeds the key wrap.
func (cr *Creator) applyEncryptionPolicy(p *domain.Pasta, filePath, plainKey, randomKey string) error {
	if p.Readonly && plainKey != "" {
		wrapped, err := cr.cipher.Seal(plainKey, idDerivedKey(p.ID))
		if err != nil {
			return domain.CryptoError("wrap uploader key", err)
		}
		p.EncryptedKey = wrapped
		metrics.EncryptionOps.WithLabelValues("key").Inc()
	}

	if !p.EncryptServer || p.Readonly {
		return nil
	}
	key := plainKey
	if p.EncryptClient {
		key = randomKey
	}
	if p.Content != "" {
		sealed, err := cr.cipher.Seal(p.Content, key)
		if err != nil {
			return domain.CryptoError("encrypt content", err)
		}
		p.Content = sealed
		metrics.EncryptionOps.WithLabelValues("content").Inc()
	}
	if filePath != "" {
		if err := cr.cipher.SealFile(filePath, key); err != nil {
			return domain.CryptoError("encrypt attachment", err)
		}
		metrics.EncryptionOps.WithLabelValues("file").Inc()
	}
	return nil
}

// idDerivedKey is the wrapping key for encrypted_key: derived from the
// record's own numeric id, so the passphrase is never persisted in the
// clear yet can be recovered knowing only the record.
func idDerivedKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}
