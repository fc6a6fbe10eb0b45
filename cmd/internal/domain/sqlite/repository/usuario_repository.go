package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultUsuarioRepository struct {
	db *gorm.DB
}

func NewUsuarioRepository(db *gorm.DB) *DefaultUsuarioRepository {
	return &DefaultUsuarioRepository{db: db}
}

func (u *DefaultUsuarioRepository) FindByID(id int64) (*entity.Usuario, error) {
	var usuario entity.Usuario
	err := u.db.Preload("Setor").First(&usuario, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

func (u *DefaultUsuarioRepository) FindByLogin(login string) (*entity.Usuario, error) {
	var usuario entity.Usuario
	err := u.db.Preload("Setor").Where("login = ?", login).First(&usuario).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

func (u *DefaultUsuarioRepository) FindActiveByID(id int64) (*entity.Usuario, error) {
	var usuario entity.Usuario
	err := u.db.Preload("Setor").Where("id = ? AND ativo = ?", id, true).First(&usuario).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

// FindAtivos lists active staff, optionally narrowed to one sector.
func (u *DefaultUsuarioRepository) FindAtivos(setorID *int64) ([]*entity.Usuario, error) {
	query := u.db.Preload("Setor").Where("ativo = ?", true)
	if setorID != nil {
		query = query.Where("setor_id = ?", *setorID)
	}

	var usuarios []*entity.Usuario
	err := query.Order("nome").Find(&usuarios).Error
	if err != nil {
		return nil, err
	}
	return usuarios, nil
}

func (u *DefaultUsuarioRepository) ExistsByLogin(login string) (bool, error) {
	var exists int
	err := u.db.
		Raw("SELECT EXISTS(SELECT 1 FROM usuarios WHERE login = ?)", login).
		Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (u *DefaultUsuarioRepository) Save(usuario *entity.Usuario) error {
	return u.db.Save(usuario).Error
}
