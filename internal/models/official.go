package models

import "time"

// PerangkatDesa is a village official who may sign letters.
// Lower Urutan means higher rank.
type PerangkatDesa struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Nama      string    `gorm:"type:varchar(255);not null" json:"nama"`
	Jabatan   string    `gorm:"type:varchar(100);not null;index" json:"jabatan"`
	NIP       string    `gorm:"column:nip;type:varchar(30)" json:"nip"`
	Urutan    int       `gorm:"default:0" json:"urutan"`
	IsActive  bool      `gorm:"default:true;index" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PerangkatDesa) TableName() string {
	return "perangkat_desa"
}

// Well-known site setting keys
const (
	SettingLogoURL  = "logo_url"
	SettingNamaDesa = "nama_desa"
)

// SiteSetting is a key/value pair of portal configuration
type SiteSetting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SiteSetting) TableName() string {
	return "site_settings"
}

// Administrator roles
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// User is a back office account
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role      string    `gorm:"type:varchar(20)" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
