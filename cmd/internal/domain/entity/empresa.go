package entity

// Tributacao is an immutable tax regime catalog entry. Regimes are opaque
// labels here: which obligations apply under each one is driven entirely by
// the task catalog.
type Tributacao struct {
	ID   int64  `gorm:"primaryKey"`
	Nome string `gorm:"not null;uniqueIndex"`
}

// Empresa is a client company of the accounting office.
//
// TributacaoID is a denormalized pointer to the active row of
// VinculacaoEmpresaTributacao and is only ever mutated by the regime
// transition engine. Companies are never hard-deleted, only deactivated.
type Empresa struct {
	ID           int64  `gorm:"primaryKey"`
	Codigo       string `gorm:"not null;uniqueIndex"`
	Nome         string `gorm:"not null"`
	TributacaoID *int64
	Ativo        bool  `gorm:"not null;default:true"`
	CreatedAt    int64 `gorm:"not null"`
	UpdatedAt    int64 `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Tributacao *Tributacao `gorm:"foreignKey:TributacaoID;references:ID"`
}
