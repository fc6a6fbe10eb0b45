package entity

import "time"

type AssignmentStatus string

const (
	AssignmentAtiva   AssignmentStatus = "ativa"
	AssignmentInativa AssignmentStatus = "inativa"
)

// VinculacaoEmpresaTributacao is the regime-binding ledger: the versioned
// history of which regime applied to which company over time. Invariant:
// at most one row with Ativo=true per empresa. Rows are opened and closed
// only by the transition engine.
type VinculacaoEmpresaTributacao struct {
	ID           int64     `gorm:"primaryKey"`
	EmpresaID    int64     `gorm:"not null;index"`
	TributacaoID int64     `gorm:"not null"`
	DataInicio   time.Time `gorm:"not null"`
	DataFim      *time.Time
	Ativo        bool `gorm:"not null;default:true"`

	// Relations
	Tributacao *Tributacao `gorm:"foreignKey:TributacaoID;references:ID"`
}

// RelacionamentoTarefa is the versioned binding of a task to a company and
// an assignee. For a given (empresa, tarefa) pair at most one row has
// VersaoAtual=true; rows are never deleted on regime transitions, they are
// versioned off (VersaoAtual=false, DataFim set, reason recorded) and later
// either reactivated or superseded by a fresh row. The full chain is the
// audit history of the slot.
type RelacionamentoTarefa struct {
	ID                int64 `gorm:"primaryKey"`
	EmpresaID         int64 `gorm:"not null;index:idx_rel_empresa_tarefa"`
	TarefaID          int64 `gorm:"not null;index:idx_rel_empresa_tarefa"`
	ResponsavelID     *int64
	VinculacaoID      *int64
	Status            AssignmentStatus `gorm:"not null;default:'ativa'"`
	VersaoAtual       bool             `gorm:"not null;default:true"`
	DataInicio        time.Time        `gorm:"not null"`
	DataFim           *time.Time
	MotivoDesativacao *string
	CreatedAt         int64 `gorm:"not null"`
	UpdatedAt         int64 `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Empresa     *Empresa                     `gorm:"foreignKey:EmpresaID;references:ID"`
	Tarefa      *Tarefa                      `gorm:"foreignKey:TarefaID;references:ID"`
	Responsavel *Usuario                     `gorm:"foreignKey:ResponsavelID;references:ID"`
	Vinculacao  *VinculacaoEmpresaTributacao `gorm:"foreignKey:VinculacaoID;references:ID"`
}
