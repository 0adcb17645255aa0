// Package svc holds the paste-creation pipeline: validation, encryption
// policy, attachment persistence, and the transactional commit.
package svc

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	mrand "math/rand"
	"time"

	"macrobin/cfg"
	"macrobin/metrics"
	"macrobin/pkg/domain"
	"macrobin/pkg/seal"
	"macrobin/svc/attach"
	"macrobin/svc/expire"
	"macrobin/svc/slug"
	"macrobin/svc/store"
	"macrobin/svc/util"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

const idRetries = 5

type Creator struct {
	cfg    *cfg.Cfg
	store  *store.Coordinator
	attach *attach.Writer
	cipher seal.Cipher
	codec  slug.Codec
	expiry *expire.Resolver

	// Injectable for tests.
	now    func() int64
	randID func() uint64
}

func NewCreator(c *cfg.Cfg, st *store.Coordinator, aw *attach.Writer, ci seal.Cipher, sc slug.Codec, ex *expire.Resolver) *Creator {
	if c == nil || st == nil || aw == nil || ci == nil || sc == nil || ex == nil {
		panic("creator: nil dependency")
	}
	return &Creator{
		cfg:    c,
		store:  st,
		attach: aw,
		cipher: ci,
		codec:  sc,
		expiry: ex,
		now:    func() int64 { return time.Now().Unix() },
		// Ids are deliberately non-cryptographic and small: obscurity
		// comes from the slug encoding, not from the id itself.
		randID: func() uint64 { return uint64(mrand.Intn(1 << 16)) },
	}
}

// Create runs the whole pipeline. Validation and policy errors return
// before any side effect; once the attachment is on disk, every later
// failure discards it again so disk state never outlives a record that
// was not committed.
func (cr *Creator) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	if err := cr.checkUploaderPassword(req.UploaderPassword); err != nil {
		return nil, err
	}

	// Classify before any encryption transform so the public type
	// reflects the original payload shape.
	content := norm.NFC.String(req.Content)
	contentPayload := domain.ClassifyContent(content)

	filePayload, err := cr.decodeUpload(req)
	if err != nil {
		return nil, err
	}
	if contentPayload == nil && filePayload == nil {
		return nil, domain.ErrEmptyPasta
	}

	// genID reserves the id, so this request owns it and its slug
	// directory exclusively from here until commit or Release.
	id, err := cr.genID()
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			cr.store.Release(id)
		}
	}()

	now := cr.now()
	p := &domain.Pasta{
		ID:             id,
		Extension:      req.Extension,
		Private:        req.Private,
		Readonly:       req.Readonly,
		Editable:       cr.editable(req.Editable),
		EncryptServer:  req.EncryptServer,
		EncryptClient:  req.EncryptClient,
		EncryptedKey:   req.EncryptedKey,
		Created:        now,
		LastRead:       now,
		BurnAfterReads: req.BurnAfter,
		Expiration:     cr.expiry.Resolve(req.Expiration, now),
	}
	if contentPayload != nil {
		p.Content = content
		p.Type = contentPayload.PastaType()
	}
	// File presence wins over content in the stored type.
	if filePayload != nil {
		p.File = &domain.PastaFile{Name: filePayload.Name, Size: uint64(len(filePayload.Bytes))}
		p.Type = domain.TypeFile
	}

	slugStr := cr.codec.Encode(id)

	var filePath string
	if filePayload != nil {
		filePath, err = cr.attach.Write(slugStr, filePayload.Name, filePayload.Bytes)
		if err != nil {
			return nil, domain.IOError("write attachment", err)
		}
		defer func() {
			if !committed {
				cr.attach.Discard(slugStr)
			}
		}()
		metrics.AttachmentBytes.Add(float64(len(filePayload.Bytes)))
	}

	if err := cr.applyEncryptionPolicy(p, filePath, req.PlainKey, req.RandomKey); err != nil {
		return nil, err
	}

	if err := cr.store.Append(ctx, p); err != nil {
		if errors.Is(err, domain.ErrIDCollision) {
			return nil, domain.ErrIDCollision
		}
		return nil, domain.IOError("persist pasta", err)
	}
	committed = true

	metrics.PastaCreated.WithLabelValues(p.Type).Inc()
	util.Info().
		Uint64("id", id).
		Str("slug", slugStr).
		Str("type", p.Type).
		Bool("encrypt_server", p.EncryptServer).
		Int64("expiration", p.Expiration).
		Msg("pasta created")

	return &domain.CreateResult{
		Pasta: p,
		Slug:  slugStr,
		URL:   cr.composeURL(slugStr, p.EncryptServer),
	}, nil
}

func (cr *Creator) checkUploaderPassword(supplied string) error {
	if !cr.cfg.ReadonlyUploads || cr.cfg.UploaderPassword.Value() == "" {
		return nil
	}
	want := cr.cfg.UploaderPassword.Value()
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(want)) != 1 {
		return domain.ErrIncorrectUploaderPassword
	}
	return nil
}

// decodeUpload validates and decodes a file upload. A request that
// carries only one of file_name/file_content is treated as having no
// file at all.
func (cr *Creator) decodeUpload(req domain.CreateRequest) (*domain.FilePayload, error) {
	if req.FileName == "" || req.FileContent == "" {
		return nil, nil
	}
	if cr.cfg.NoFileUpload {
		return nil, domain.ErrFileUploadsDisabled
	}
	name, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		util.Warn().Str("file_name", req.FileName).Msg("unsafe file name rejected")
		return nil, domain.ErrUnsafeFileName
	}
	b, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		return nil, domain.ErrInvalidBase64
	}
	if len(b) > cr.cfg.MaxFileBytes(req.EncryptServer) {
		return nil, domain.ErrFileTooLarge
	}
	return &domain.FilePayload{Name: name, Bytes: b}, nil
}

// genID draws from the 16-bit range until it can reserve an id.
// Reservation, not a bare existence probe: two in-flight requests that
// drew the same id would otherwise both write into the same attachment
// directory, and the collision loser's rollback would take the winner's
// file with it.
func (cr *Creator) genID() (uint64, error) {
	for i := 0; i < idRetries; i++ {
		id := cr.randID()
		if cr.store.Reserve(id) {
			return id, nil
		}
	}
	return 0, domain.ErrIDGenerationFailed
}

func (cr *Creator) editable(requested *bool) bool {
	if requested != nil {
		return *requested
	}
	return cr.cfg.DefaultEditable
}

func (cr *Creator) composeURL(slugStr string, encryptServer bool) string {
	if encryptServer {
		// Server-side encryption means a follow-up unlock step.
		return cr.cfg.PublicPath + "/auth/" + slugStr + "/success"
	}
	return cr.cfg.PublicPath + "/upload/" + slugStr
}
