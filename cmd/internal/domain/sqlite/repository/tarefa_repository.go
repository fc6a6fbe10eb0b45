package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultTarefaRepository struct {
	db *gorm.DB
}

func NewTarefaRepository(db *gorm.DB) *DefaultTarefaRepository {
	return &DefaultTarefaRepository{db: db}
}

func (r *DefaultTarefaRepository) FindByID(id int64) (*entity.Tarefa, error) {
	var tarefa entity.Tarefa
	err := r.db.Preload("Setor").Preload("Tributacao").First(&tarefa, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &tarefa, nil
}

// FindAll lists task definitions, optionally narrowed to one sector.
func (r *DefaultTarefaRepository) FindAll(setorID *int64) ([]*entity.Tarefa, error) {
	query := r.db.Preload("Setor").Preload("Tributacao")
	if setorID != nil {
		query = query.Where("setor_id = ?", *setorID)
	}

	var tarefas []*entity.Tarefa
	err := query.Order("nome").Find(&tarefas).Error
	if err != nil {
		return nil, err
	}
	return tarefas, nil
}

// FindByTributacao resolves every task applicable under a regime: catalog
// junction rows (ativo=true) plus tasks carrying the regime directly.
// The returned slice is deduplicated.
func (r *DefaultTarefaRepository) FindByTributacao(tributacaoID int64) ([]*entity.Tarefa, error) {
	var junction []*entity.TarefaTributacao
	err := r.db.Preload("Tarefa").
		Where("tributacao_id = ? AND ativo = ?", tributacaoID, true).
		Order("ordem").
		Find(&junction).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var tarefas []*entity.Tarefa
	for _, tt := range junction {
		if tt.Tarefa == nil || seen[tt.TarefaID] {
			continue
		}
		seen[tt.TarefaID] = true
		tarefas = append(tarefas, tt.Tarefa)
	}

	var diretas []*entity.Tarefa
	err = r.db.Where("tributacao_id = ?", tributacaoID).Find(&diretas).Error
	if err != nil {
		return nil, err
	}

	for _, t := range diretas {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tarefas = append(tarefas, t)
	}
	return tarefas, nil
}

// PertenceATributacao reports whether the task is tied to the given regime,
// either directly or through a catalog junction row.
func (r *DefaultTarefaRepository) PertenceATributacao(tarefa *entity.Tarefa, tributacaoID int64) (bool, error) {
	if tarefa.TributacaoID != nil && *tarefa.TributacaoID == tributacaoID {
		return true, nil
	}

	var count int64
	err := r.db.Model(&entity.TarefaTributacao{}).
		Where("tarefa_id = ? AND tributacao_id = ?", tarefa.ID, tributacaoID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *DefaultTarefaRepository) Save(tarefa *entity.Tarefa) error {
	return r.db.Save(tarefa).Error
}

func (r *DefaultTarefaRepository) SaveCatalogo(tt *entity.TarefaTributacao) error {
	return r.db.Save(tt).Error
}
