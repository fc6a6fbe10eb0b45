package repository

import (
	"errors"

	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultPeriodoRepository struct {
	db *gorm.DB
}

func NewPeriodoRepository(db *gorm.DB) *DefaultPeriodoRepository {
	return &DefaultPeriodoRepository{db: db}
}

func (r *DefaultPeriodoRepository) FindByID(id int64) (*entity.Periodo, error) {
	var periodo entity.Periodo
	err := r.db.Preload("RelacionamentoTarefa").Preload("RelacionamentoTarefa.Tarefa").
		First(&periodo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &periodo, nil
}

// FindByRelacionamentoAndLabel resolves the single instance of one
// assignment in one period, nil when none was materialized yet.
func (r *DefaultPeriodoRepository) FindByRelacionamentoAndLabel(relID int64, label string) (*entity.Periodo, error) {
	var periodo entity.Periodo
	err := r.db.
		Where("relacionamento_tarefa_id = ? AND periodo_label = ?", relID, label).
		First(&periodo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &periodo, nil
}

// PeriodoFilter narrows instance listings. Zero values mean "no filter".
type PeriodoFilter struct {
	EmpresaID     int64
	ResponsavelID int64
	TarefaID      int64
	PeriodoLabel  string
}

// FindFiltered lists instances joined with their live assignment data.
// The type-based visibility rule is applied by the service on top of this.
func (r *DefaultPeriodoRepository) FindFiltered(f PeriodoFilter) ([]*entity.Periodo, error) {
	query := r.db.
		Preload("RelacionamentoTarefa").
		Preload("RelacionamentoTarefa.Tarefa").
		Preload("RelacionamentoTarefa.Empresa").
		Joins("JOIN relacionamento_tarefas ON relacionamento_tarefas.id = periodos.relacionamento_tarefa_id")

	if f.EmpresaID != 0 {
		query = query.Where("relacionamento_tarefas.empresa_id = ?", f.EmpresaID)
	}
	if f.ResponsavelID != 0 {
		query = query.Where("relacionamento_tarefas.responsavel_id = ?", f.ResponsavelID)
	}
	if f.TarefaID != 0 {
		query = query.Where("relacionamento_tarefas.tarefa_id = ?", f.TarefaID)
	}

	var periodos []*entity.Periodo
	err := query.Order("periodos.id").Find(&periodos).Error
	if err != nil {
		return nil, err
	}
	return periodos, nil
}

func (r *DefaultPeriodoRepository) Save(periodo *entity.Periodo) error {
	return r.db.Save(periodo).Error
}

func (r *DefaultPeriodoRepository) SaveRetificacao(ret *entity.Retificacao) error {
	return r.db.Save(ret).Error
}

// CountRetificacoes counts the audit rows of one instance; always equals
// the instance's ContadorRetificacoes.
func (r *DefaultPeriodoRepository) CountRetificacoes(periodoID int64) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Retificacao{}).
		Where("periodo_id = ?", periodoID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
