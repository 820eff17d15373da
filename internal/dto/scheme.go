package dto

import "github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"

// UpsertSchemeRequest creates or replaces a scheme. Dates use YYYY-MM-DD.
type UpsertSchemeRequest struct {
	Kode         string                `json:"kode" validate:"required,max=30"`
	Nama         string                `json:"nama" validate:"required,max=200"`
	Kategori     models.SchemeCategory `json:"kategori" validate:"required,oneof=PENELITIAN PENGABDIAN"`
	Tahun        int                   `json:"tahun" validate:"required,gte=2000,lte=2100"`
	DanaMin      int64                 `json:"dana_min" validate:"gte=0"`
	DanaMax      int64                 `json:"dana_max" validate:"gtefield=DanaMin"`
	BatasAnggota int                   `json:"batas_anggota" validate:"required,gte=1"`
	TanggalBuka  string                `json:"tanggal_buka" validate:"required,datetime=2006-01-02"`
	TanggalTutup string                `json:"tanggal_tutup" validate:"required,datetime=2006-01-02"`
	Status       models.SchemeStatus   `json:"status" validate:"omitempty,oneof=AKTIF NONAKTIF DRAFT"`
}

// SchemeQuery mirrors supported listing filters.
type SchemeQuery struct {
	Status   string `form:"status"`
	Kategori string `form:"kategori"`
	Tahun    int    `form:"tahun"`
	Search   string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
