package entity

import "time"

type InstanceStatus string

const (
	InstancePendente   InstanceStatus = "pendente"
	InstanceFazendo    InstanceStatus = "fazendo"
	InstanceConcluida  InstanceStatus = "concluida"
	InstanceRetificada InstanceStatus = "retificada"
)

// Concluido reports whether the obligation was delivered at least once
// (a rectified instance was delivered and then corrected).
func (s InstanceStatus) Concluido() bool {
	return s == InstanceConcluida || s == InstanceRetificada
}

// Periodo is one concrete occurrence of a task's obligation cycle, e.g.
// September 2025's filing. At most one row exists per
// (relacionamento, periodo_label); instances are never deleted.
type Periodo struct {
	ID                     int64     `gorm:"primaryKey"`
	RelacionamentoTarefaID int64     `gorm:"not null;uniqueIndex:idx_periodo_rel_label"`
	PeriodoLabel           string    `gorm:"not null;uniqueIndex:idx_periodo_rel_label"`
	Inicio                 time.Time `gorm:"not null"`
	Fim                    time.Time `gorm:"not null"`
	Status                 InstanceStatus `gorm:"not null;default:'pendente'"`
	DataConclusao          *time.Time
	DataRetificacao        *time.Time
	ContadorRetificacoes   int   `gorm:"not null;default:0"`
	UpdatedAt              int64 `gorm:"not null;autoUpdateTime:false"`

	// Relations
	RelacionamentoTarefa *RelacionamentoTarefa `gorm:"foreignKey:RelacionamentoTarefaID;references:ID"`
}

// Retificacao is the append-only audit log of corrections: one row per
// rectification event. ContadorRetificacoes on the instance always equals
// the number of rows referencing it.
type Retificacao struct {
	ID        int64 `gorm:"primaryKey"`
	PeriodoID int64 `gorm:"not null;index"`
	UsuarioID int64 `gorm:"not null"`
	Motivo    string
	CreatedAt int64 `gorm:"not null"`
}
