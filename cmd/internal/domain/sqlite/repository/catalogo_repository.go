package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

// DefaultCatalogoRepository serves the immutable catalog entries: tax
// regimes and sectors.
type DefaultCatalogoRepository struct {
	db *gorm.DB
}

func NewCatalogoRepository(db *gorm.DB) *DefaultCatalogoRepository {
	return &DefaultCatalogoRepository{db: db}
}

func (r *DefaultCatalogoRepository) FindTributacaoByID(id int64) (*entity.Tributacao, error) {
	var tributacao entity.Tributacao
	err := r.db.First(&tributacao, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &tributacao, nil
}

func (r *DefaultCatalogoRepository) FindAllTributacoes() ([]*entity.Tributacao, error) {
	var tributacoes []*entity.Tributacao
	err := r.db.Order("nome").Find(&tributacoes).Error
	if err != nil {
		return nil, err
	}
	return tributacoes, nil
}

func (r *DefaultCatalogoRepository) FindSetorByID(id int64) (*entity.Setor, error) {
	var setor entity.Setor
	err := r.db.First(&setor, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &setor, nil
}

func (r *DefaultCatalogoRepository) FindAllSetores() ([]*entity.Setor, error) {
	var setores []*entity.Setor
	err := r.db.Order("nome").Find(&setores).Error
	if err != nil {
		return nil, err
	}
	return setores, nil
}
