package entity

import "time"

type TicketStatus string

const (
	TicketPendente  TicketStatus = "pendente"
	TicketEmRevisao TicketStatus = "em_revisao"
	TicketConcluida TicketStatus = "concluida"
	TicketCancelada TicketStatus = "cancelada"
)

// Aberto reports whether the ticket still demands manager attention.
func (s TicketStatus) Aberto() bool {
	return s == TicketPendente || s == TicketEmRevisao
}

// MudancaTributacaoPendente is the review ticket recorded by every regime
// transition: it tracks the newly-unassigned obligations of the company
// until managers assign or explicitly skip each one. At most one open
// ticket exists per empresa.
type MudancaTributacaoPendente struct {
	ID                    int64  `gorm:"primaryKey"`
	Referencia            string `gorm:"not null;uniqueIndex"`
	EmpresaID             int64  `gorm:"not null;index"`
	TributacaoAnteriorID  *int64
	TributacaoNovaID      int64        `gorm:"not null"`
	DataMudanca           time.Time    `gorm:"not null"`
	Motivo                string       `gorm:"not null"`
	Status                TicketStatus `gorm:"not null;default:'pendente'"`
	CriadoPorID           int64        `gorm:"not null"`
	RevisadoPorID         *int64
	DataRevisao           *time.Time
	ObservacoesRevisao    string
	CreatedAt             int64 `gorm:"not null"`

	// Relations
	Empresa            *Empresa    `gorm:"foreignKey:EmpresaID;references:ID"`
	TributacaoAnterior *Tributacao `gorm:"foreignKey:TributacaoAnteriorID;references:ID"`
	TributacaoNova     *Tributacao `gorm:"foreignKey:TributacaoNovaID;references:ID"`
}
