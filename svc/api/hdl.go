package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"macrobin/cfg"
	"macrobin/metrics"
	"macrobin/pkg/domain"
	"macrobin/svc/svc"
	"macrobin/svc/util"

	"github.com/rs/zerolog/hlog"
)

// Decoded uploads are capped separately in the pipeline; this bounds the
// base64-inflated JSON envelope itself.
const requestOverhead = 1 * 1024 * 1024

type Hdl struct {
	creator *svc.Creator
	cfg     *cfg.Cfg
}

// CreatePastaRequest is the wire shape of a creation request. Editable
// is a pointer so a missing field can fall back to the server default.
type CreatePastaRequest struct {
	Content          string `json:"content"`
	FileName         string `json:"file_name,omitempty"`
	FileContent      string `json:"file_content,omitempty"`
	Extension        string `json:"extension,omitempty"`
	Private          bool   `json:"private,omitempty"`
	Readonly         bool   `json:"readonly,omitempty"`
	Editable         *bool  `json:"editable,omitempty"`
	EncryptServer    bool   `json:"encrypt_server,omitempty"`
	EncryptClient    bool   `json:"encrypt_client,omitempty"`
	EncryptedKey     string `json:"encrypted_key,omitempty"`
	Expiration       string `json:"expiration,omitempty"`
	BurnAfterReads   uint64 `json:"burn_after,omitempty"`
	UploaderPassword string `json:"uploader_password,omitempty"`
	PlainKey         string `json:"plain_key,omitempty"`
	RandomKey        string `json:"random_key,omitempty"`
}

type CreatePastaResponse struct {
	URL string `json:"url"`
}

func (h *Hdl) CreatePasta(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		log.Warn().
			Str("content_type", r.Header.Get("Content-Type")).
			Str("request_id", requestID).
			Msg("invalid Content-Type header")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "expected Content-Type: application/json",
			"request_id": requestID,
		})
		return
	}

	// Base64 inflates by 4/3, so the envelope cap follows the larger
	// upload ceiling rather than a fixed constant.
	limit := int64(h.cfg.MaxFileBytes(true))*4/3 + requestOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req CreatePastaRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			log.Warn().Msg("empty request body")
		} else {
			log.Warn().Err(err).Msg("malformed request body")
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}

	res, err := h.creator.Create(r.Context(), domain.CreateRequest{
		Content:          req.Content,
		FileName:         req.FileName,
		FileContent:      req.FileContent,
		Extension:        req.Extension,
		Private:          req.Private,
		Readonly:         req.Readonly,
		Editable:         req.Editable,
		EncryptServer:    req.EncryptServer,
		EncryptClient:    req.EncryptClient,
		EncryptedKey:     req.EncryptedKey,
		Expiration:       req.Expiration,
		BurnAfter:        req.BurnAfterReads,
		UploaderPassword: req.UploaderPassword,
		PlainKey:         req.PlainKey,
		RandomKey:        req.RandomKey,
	})
	if err != nil {
		metrics.CreateFailed.WithLabelValues(domain.Code(err)).Inc()
		writeErr(w, err, requestID)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(CreatePastaResponse{URL: res.URL})
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	w.WriteHeader(statusCode)
	errorMsg := domain.ToResp(err).Error.Msg
	if statusCode >= 500 {
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error on create")
	}
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"request_id": requestID,
	})
}
