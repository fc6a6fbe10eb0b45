package entity

type UserType string

const (
	UserAdmin      UserType = "admin"
	UserGerente    UserType = "gerente"
	UserSupervisor UserType = "supervisor"
	UserNormal     UserType = "normal"
)

// Setor is the organizational department that owns tasks and staff.
type Setor struct {
	ID   int64  `gorm:"primaryKey"`
	Nome string `gorm:"not null;uniqueIndex"`
}

// Usuario is the general basic structure of all staff across the platform
type Usuario struct {
	ID        int64    `gorm:"primaryKey"`
	Nome      string   `gorm:"not null"`
	Login     string   `gorm:"not null;uniqueIndex"`
	SenhaHash string   `gorm:"not null"`
	Tipo      UserType `gorm:"not null;default:'normal'"`
	SetorID   *int64
	Ativo     bool  `gorm:"not null;default:true"`
	CreatedAt int64 `gorm:"not null"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Setor *Setor `gorm:"foreignKey:SetorID;references:ID"`
}

// PodeGerenciar reports whether the user holds a management role
// (admin or gerente). Supervisors have their own surface and are not managers.
func (u *Usuario) PodeGerenciar() bool {
	return u.Tipo == UserAdmin || u.Tipo == UserGerente
}
