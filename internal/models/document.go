package models

import "time"

// DocumentType classifies a proposal attachment.
type DocumentType string

const (
	DocumentTypeProposal      DocumentType = "PROPOSAL"
	DocumentTypeProgress      DocumentType = "LAPORAN_KEMAJUAN"
	DocumentTypeFinalReport   DocumentType = "LAPORAN_AKHIR"
	DocumentTypeSupplementary DocumentType = "LAINNYA"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeProposal, DocumentTypeProgress, DocumentTypeFinalReport, DocumentTypeSupplementary:
		return true
	}
	return false
}

// Document is file metadata attached to a proposal.
type Document struct {
	ID         string       `db:"id" json:"id"`
	ProposalID string       `db:"proposal_id" json:"proposal_id"`
	Nama       string       `db:"nama" json:"nama"`
	Tipe       DocumentType `db:"tipe" json:"tipe"`
	MimeType   string       `db:"mime_type" json:"mime_type"`
	Ukuran     int64        `db:"ukuran" json:"ukuran"`
	StorageKey string       `db:"storage_key" json:"-"`
	UploadedBy string       `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
