package models

import "time"

// Department is a jurusan.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Kode      string    `db:"kode" json:"kode"`
	Nama      string    `db:"nama" json:"nama"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Program is a prodi belonging to a department.
type Program struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Kode         string    `db:"kode" json:"kode"`
	Nama         string    `db:"nama" json:"nama"`
	Jenjang      string    `db:"jenjang" json:"jenjang"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
