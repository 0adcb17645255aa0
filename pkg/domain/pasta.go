package domain

const (
	TypeText = "text"
	TypeURL  = "url"
	TypeFile = "file"
)

// Pasta is one stored unit of shared content plus its metadata. It is
// built exactly once by the creation pipeline; the read/burn path owns
// ReadCount and LastRead afterwards.
type Pasta struct {
	ID             uint64     `json:"id"`
	Content        string     `json:"content"`
	File           *PastaFile `json:"file,omitempty"`
	Extension      string     `json:"extension"`
	Private        bool       `json:"private"`
	Readonly       bool       `json:"readonly"`
	Editable       bool       `json:"editable"`
	EncryptServer  bool       `json:"encrypt_server"`
	EncryptClient  bool       `json:"encrypt_client"`
	EncryptedKey   string     `json:"encrypted_key,omitempty"`
	Created        int64      `json:"created"`
	ReadCount      uint64     `json:"read_count"`
	BurnAfterReads uint64     `json:"burn_after_reads"`
	LastRead       int64      `json:"last_read"`
	Type           string     `json:"pasta_type"`
	Expiration     int64      `json:"expiration"`
}

// PastaFile describes an attachment. Its on-disk location is not stored:
// it is always <data-dir>/attachments/<slug>/<Name>.
type PastaFile struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
}

// Eternal reports whether the record never expires. Expiration 0 is the
// sentinel and is only reachable when the server permits eternal pastas.
func (p *Pasta) Eternal() bool {
	return p.Expiration == 0
}

// CreateRequest carries the already-decoded fields of a creation request.
// Editable is a pointer so an absent field falls back to the server
// default instead of false.
type CreateRequest struct {
	Content          string
	FileName         string
	FileContent      string
	Extension        string
	Private          bool
	Readonly         bool
	Editable         *bool
	EncryptServer    bool
	EncryptClient    bool
	EncryptedKey     string
	Expiration       string
	BurnAfter        uint64
	UploaderPassword string
	PlainKey         string
	RandomKey        string
}

// CreateResult is what the pipeline hands back on success.
type CreateResult struct {
	Pasta *Pasta
	Slug  string
	URL   string
}
