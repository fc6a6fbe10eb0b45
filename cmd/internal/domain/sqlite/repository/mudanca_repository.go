package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultMudancaRepository struct {
	db *gorm.DB
}

func NewMudancaRepository(db *gorm.DB) *DefaultMudancaRepository {
	return &DefaultMudancaRepository{db: db}
}

func (r *DefaultMudancaRepository) FindByID(id int64) (*entity.MudancaTributacaoPendente, error) {
	var mudanca entity.MudancaTributacaoPendente
	err := r.db.Preload("Empresa").Preload("TributacaoAnterior").Preload("TributacaoNova").
		First(&mudanca, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &mudanca, nil
}

// FindAbertaByEmpresa resolves the open (pendente or em_revisao) ticket of
// one company, nil when the company has none. At most one exists.
func (r *DefaultMudancaRepository) FindAbertaByEmpresa(empresaID int64) (*entity.MudancaTributacaoPendente, error) {
	var mudanca entity.MudancaTributacaoPendente
	err := r.db.
		Where("empresa_id = ? AND status IN ?", empresaID,
			[]entity.TicketStatus{entity.TicketPendente, entity.TicketEmRevisao}).
		First(&mudanca).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &mudanca, nil
}

// FindAbertas lists every open ticket, newest first.
func (r *DefaultMudancaRepository) FindAbertas() ([]*entity.MudancaTributacaoPendente, error) {
	var mudancas []*entity.MudancaTributacaoPendente
	err := r.db.Preload("Empresa").Preload("TributacaoAnterior").Preload("TributacaoNova").
		Where("status IN ?", []entity.TicketStatus{entity.TicketPendente, entity.TicketEmRevisao}).
		Order("created_at DESC").
		Find(&mudancas).Error
	if err != nil {
		return nil, err
	}
	return mudancas, nil
}

func (r *DefaultMudancaRepository) Save(mudanca *entity.MudancaTributacaoPendente) error {
	return r.db.Save(mudanca).Error
}
