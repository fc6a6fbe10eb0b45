package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

// DefaultVinculacaoRepository serves the regime-binding ledger.
type DefaultVinculacaoRepository struct {
	db *gorm.DB
}

func NewVinculacaoRepository(db *gorm.DB) *DefaultVinculacaoRepository {
	return &DefaultVinculacaoRepository{db: db}
}

// FindAtivaByEmpresa resolves the single active binding of one company,
// nil when the company never had a regime assigned.
func (r *DefaultVinculacaoRepository) FindAtivaByEmpresa(empresaID int64) (*entity.VinculacaoEmpresaTributacao, error) {
	var vinculacao entity.VinculacaoEmpresaTributacao
	err := r.db.
		Where("empresa_id = ? AND ativo = ?", empresaID, true).
		First(&vinculacao).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &vinculacao, nil
}

// FindByEmpresa lists the full binding history of one company, newest first.
func (r *DefaultVinculacaoRepository) FindByEmpresa(empresaID int64) ([]*entity.VinculacaoEmpresaTributacao, error) {
	var vinculacoes []*entity.VinculacaoEmpresaTributacao
	err := r.db.Preload("Tributacao").
		Where("empresa_id = ?", empresaID).
		Order("data_inicio DESC").
		Find(&vinculacoes).Error
	if err != nil {
		return nil, err
	}
	return vinculacoes, nil
}

func (r *DefaultVinculacaoRepository) Save(vinculacao *entity.VinculacaoEmpresaTributacao) error {
	return r.db.Save(vinculacao).Error
}
