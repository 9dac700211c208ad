package models

import "time"

// Gender is the resident's sex as stored in population records
type Gender string

const (
	GenderLakiLaki  Gender = "LAKI_LAKI"
	GenderPerempuan Gender = "PEREMPUAN"
)

// KartuKeluarga is a household (family card) record
type KartuKeluarga struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	NoKK      string    `gorm:"column:no_kk;type:varchar(16);uniqueIndex;not null" json:"noKK"`
	Alamat    string    `gorm:"type:text" json:"alamat"`
	RT        string    `gorm:"column:rt;type:varchar(5)" json:"rt"`
	RW        string    `gorm:"column:rw;type:varchar(5)" json:"rw"`
	Dusun     string    `gorm:"type:varchar(100)" json:"dusun"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (KartuKeluarga) TableName() string {
	return "kartu_keluarga"
}

// Penduduk is a registered resident. The letter service only reads it.
type Penduduk struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	NIK             string     `gorm:"column:nik;type:varchar(16);uniqueIndex;not null" json:"nik"`
	Nama            string     `gorm:"type:varchar(255);not null" json:"nama"`
	TempatLahir     string     `gorm:"type:varchar(100)" json:"tempatLahir"`
	TanggalLahir    *time.Time `gorm:"type:date" json:"tanggalLahir"`
	JenisKelamin    Gender     `gorm:"type:varchar(20)" json:"jenisKelamin"`
	Agama           string     `gorm:"type:varchar(50)" json:"agama"`
	Pekerjaan       string     `gorm:"type:varchar(100)" json:"pekerjaan"`
	KartuKeluargaID *string    `gorm:"type:varchar(36);index" json:"kartuKeluargaId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	KartuKeluarga *KartuKeluarga `gorm:"foreignKey:KartuKeluargaID" json:"kartuKeluarga,omitempty"`
}

func (Penduduk) TableName() string {
	return "penduduk"
}
