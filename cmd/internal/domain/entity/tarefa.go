package entity

type CycleType string

const (
	CycleMensal     CycleType = "Mensal"
	CycleTrimestral CycleType = "Trimestral"
	CycleAnual      CycleType = "Anual"
)

func (c CycleType) Valid() bool {
	switch c {
	case CycleMensal, CycleTrimestral, CycleAnual:
		return true
	}
	return false
}

// Tarefa is a recurring obligation template ("monthly payroll filing").
//
// TributacaoID nil means the task is not regime-specific by itself; such a
// task is reachable either through TarefaComum (applies under any regime) or
// through TarefaTributacao catalog rows.
type Tarefa struct {
	ID           int64     `gorm:"primaryKey"`
	Nome         string    `gorm:"not null"`
	Tipo         CycleType `gorm:"not null"`
	Descricao    string
	SetorID      *int64
	TributacaoID *int64
	TarefaComum  bool  `gorm:"not null;default:false"`
	CreatedAt    int64 `gorm:"not null"`
	UpdatedAt    int64 `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Setor      *Setor      `gorm:"foreignKey:SetorID;references:ID"`
	Tributacao *Tributacao `gorm:"foreignKey:TributacaoID;references:ID"`
}

// TarefaTributacao is the catalog junction letting one task belong to
// multiple regimes without duplicating the definition.
type TarefaTributacao struct {
	ID           int64 `gorm:"primaryKey"`
	TarefaID     int64 `gorm:"not null;uniqueIndex:idx_tarefa_tributacao"`
	TributacaoID int64 `gorm:"not null;uniqueIndex:idx_tarefa_tributacao"`
	Obrigatoria  bool  `gorm:"not null;default:true"`
	Ordem        int   `gorm:"not null;default:0"`
	Ativo        bool  `gorm:"not null;default:true"`

	// Relations
	Tarefa     *Tarefa     `gorm:"foreignKey:TarefaID;references:ID"`
	Tributacao *Tributacao `gorm:"foreignKey:TributacaoID;references:ID"`
}
