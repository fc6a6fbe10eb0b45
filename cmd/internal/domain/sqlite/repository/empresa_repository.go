package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultEmpresaRepository struct {
	db *gorm.DB
}

func NewEmpresaRepository(db *gorm.DB) *DefaultEmpresaRepository {
	return &DefaultEmpresaRepository{db: db}
}

func (r *DefaultEmpresaRepository) FindByID(id int64) (*entity.Empresa, error) {
	var empresa entity.Empresa
	err := r.db.Preload("Tributacao").First(&empresa, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &empresa, nil
}

func (r *DefaultEmpresaRepository) FindByCodigo(codigo string) (*entity.Empresa, error) {
	var empresa entity.Empresa
	err := r.db.Preload("Tributacao").Where("codigo = ?", codigo).First(&empresa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &empresa, nil
}

func (r *DefaultEmpresaRepository) FindAtivas() ([]*entity.Empresa, error) {
	var empresas []*entity.Empresa
	err := r.db.Preload("Tributacao").Where("ativo = ?", true).Order("nome").Find(&empresas).Error
	if err != nil {
		return nil, err
	}
	return empresas, nil
}

func (r *DefaultEmpresaRepository) Save(empresa *entity.Empresa) error {
	return r.db.Save(empresa).Error
}
