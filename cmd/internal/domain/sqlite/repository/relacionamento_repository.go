package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultRelacionamentoRepository struct {
	db *gorm.DB
}

func NewRelacionamentoRepository(db *gorm.DB) *DefaultRelacionamentoRepository {
	return &DefaultRelacionamentoRepository{db: db}
}

func (r *DefaultRelacionamentoRepository) FindByID(id int64) (*entity.RelacionamentoTarefa, error) {
	var rel entity.RelacionamentoTarefa
	err := r.db.Preload("Tarefa").First(&rel, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindVersaoAtualByEmpresa lists the live assignment rows of one company.
func (r *DefaultRelacionamentoRepository) FindVersaoAtualByEmpresa(empresaID int64) ([]*entity.RelacionamentoTarefa, error) {
	var rels []*entity.RelacionamentoTarefa
	err := r.db.Preload("Tarefa").
		Where("empresa_id = ? AND versao_atual = ?", empresaID, true).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// FindVersaoAtual resolves the single live row of one (empresa, tarefa)
// slot, nil when the slot has no current version.
func (r *DefaultRelacionamentoRepository) FindVersaoAtual(empresaID, tarefaID int64) (*entity.RelacionamentoTarefa, error) {
	var rel entity.RelacionamentoTarefa
	err := r.db.
		Where("empresa_id = ? AND tarefa_id = ? AND versao_atual = ?", empresaID, tarefaID, true).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindLatestInactive resolves the newest versioned-off row of one
// (empresa, tarefa) slot, the candidate for reactivation on provisioning.
func (r *DefaultRelacionamentoRepository) FindLatestInactive(empresaID, tarefaID int64) (*entity.RelacionamentoTarefa, error) {
	var rel entity.RelacionamentoTarefa
	err := r.db.
		Where("empresa_id = ? AND tarefa_id = ? AND versao_atual = ?", empresaID, tarefaID, false).
		Order("created_at DESC").
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindSemResponsavel lists current-version rows of one company with no
// assignee, optionally narrowed to tasks of one sector (manager scope).
func (r *DefaultRelacionamentoRepository) FindSemResponsavel(empresaID int64, setorID *int64) ([]*entity.RelacionamentoTarefa, error) {
	query := r.db.Preload("Tarefa").Preload("Tarefa.Setor").
		Joins("JOIN tarefas ON tarefas.id = relacionamento_tarefas.tarefa_id").
		Where("relacionamento_tarefas.empresa_id = ?", empresaID).
		Where("relacionamento_tarefas.responsavel_id IS NULL").
		Where("relacionamento_tarefas.versao_atual = ?", true)

	if setorID != nil {
		query = query.Where("tarefas.setor_id = ?", *setorID)
	}

	var rels []*entity.RelacionamentoTarefa
	err := query.Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// CountSemResponsavel counts current-version, regime-specific rows of one
// company with no assignee. Common tasks never lose their assignee on a
// transition, so they are excluded from the auto-closure arithmetic.
func (r *DefaultRelacionamentoRepository) CountSemResponsavel(empresaID int64) (int64, error) {
	var count int64
	err := r.db.Model(&entity.RelacionamentoTarefa{}).
		Joins("JOIN tarefas ON tarefas.id = relacionamento_tarefas.tarefa_id").
		Where("relacionamento_tarefas.empresa_id = ?", empresaID).
		Where("relacionamento_tarefas.responsavel_id IS NULL").
		Where("relacionamento_tarefas.versao_atual = ?", true).
		Where("tarefas.tarefa_comum = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindAtivos lists every live, active assignment across all companies;
// the period engine iterates this set.
func (r *DefaultRelacionamentoRepository) FindAtivos() ([]*entity.RelacionamentoTarefa, error) {
	var rels []*entity.RelacionamentoTarefa
	err := r.db.Preload("Tarefa").
		Where("versao_atual = ? AND status = ?", true, entity.AssignmentAtiva).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

func (r *DefaultRelacionamentoRepository) Save(rel *entity.RelacionamentoTarefa) error {
	return r.db.Save(rel).Error
}
