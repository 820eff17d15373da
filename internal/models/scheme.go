package models

import "time"

// SchemeStatus controls whether a scheme accepts submissions.
type SchemeStatus string

const (
	SchemeStatusActive   SchemeStatus = "AKTIF"
	SchemeStatusInactive SchemeStatus = "NONAKTIF"
	SchemeStatusDraft    SchemeStatus = "DRAFT"
)

// SchemeCategory is the kategori of a funding scheme.
type SchemeCategory string

const (
	SchemeCategoryResearch  SchemeCategory = "PENELITIAN"
	SchemeCategoryCommunity SchemeCategory = "PENGABDIAN"
)

// Scheme (skema) is a funding program proposals are submitted against.
type Scheme struct {
	ID           string         `db:"id" json:"id"`
	Kode         string         `db:"kode" json:"kode"`
	Nama         string         `db:"nama" json:"nama"`
	Kategori     SchemeCategory `db:"kategori" json:"kategori"`
	Tahun        int            `db:"tahun" json:"tahun"`
	DanaMin      int64          `db:"dana_min" json:"dana_min"`
	DanaMax      int64          `db:"dana_max" json:"dana_max"`
	BatasAnggota int            `db:"batas_anggota" json:"batas_anggota"`
	TanggalBuka  time.Time      `db:"tanggal_buka" json:"tanggal_buka"`
	TanggalTutup time.Time      `db:"tanggal_tutup" json:"tanggal_tutup"`
	Status       SchemeStatus   `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// SchemeFilter narrows scheme listings.
type SchemeFilter struct {
	Status   *SchemeStatus
	Kategori *SchemeCategory
	Tahun    int
	Search   string
	Page     int
	PageSize int
}
