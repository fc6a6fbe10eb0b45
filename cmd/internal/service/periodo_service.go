package service

import (
	"strconv"
	"strings"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/domain/period"
	"contatask/cmd/internal/domain/policy"
	"contatask/cmd/internal/domain/sqlite/repository"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

// DefaultPeriodoService runs the period engine: materializing the instances
// of a reference month and driving each instance through its lifecycle.
type DefaultPeriodoService struct {
	DB       *gorm.DB
	Clock    period.Clock
	Policy   *policy.AcessoPolicy
	Validate *validator.Validate
}

func NewPeriodoService(db *gorm.DB, clock period.Clock, pol *policy.AcessoPolicy, validate *validator.Validate) *DefaultPeriodoService {
	return &DefaultPeriodoService{
		DB:       db,
		Clock:    clock,
		Policy:   pol,
		Validate: validate,
	}
}

// GerarPeriodos materializes the instances of every live assignment for one
// reference month. Idempotent: instances that already exist are only
// counted, never touched, so completed work always survives a re-run.
// Quarterly tasks only materialize in the closing month of their quarter.
func (s *DefaultPeriodoService) GerarPeriodos(actor *entity.Usuario, req *contract.GerarPeriodosRequest) (*contract.GerarPeriodosResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return nil, apierr
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.GerarPeriodosResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		resp, apierr = s.gerar(tx, req.Ano, req.Mes)
		if apierr != nil {
			return errRollback
		}
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("period generation failed for %d-%02d: %v", req.Ano, req.Mes, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (s *DefaultPeriodoService) gerar(tx *gorm.DB, ano, mes int) (*contract.GerarPeriodosResponse, apierror.ErrorResponse) {
	rels := repository.NewRelacionamentoRepository(tx)
	periodos := repository.NewPeriodoRepository(tx)

	ativos, err := rels.FindAtivos()
	if err != nil {
		log.Errorf("failed to fetch live assignments: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	resp := &contract.GerarPeriodosResponse{}

	for _, rel := range ativos {
		if rel.Tarefa == nil {
			continue
		}

		if rel.Tarefa.Tipo == entity.CycleTrimestral && mes != quarterClosingMonth(mes) {
			continue
		}

		window, err := period.For(ano, mes, rel.Tarefa.Tipo)
		if err != nil {
			return nil, apierror.InvalidPeriodError
		}

		existente, err := periodos.FindByRelacionamentoAndLabel(rel.ID, window.Label)
		if err != nil {
			log.Errorf("failed to check existing instance: %v", err)
			return nil, apierror.InternalServerError
		}

		if existente != nil {
			resp.Existentes++
			continue
		}

		instance := &entity.Periodo{
			RelacionamentoTarefaID: rel.ID,
			PeriodoLabel:           window.Label,
			Inicio:                 window.Inicio,
			Fim:                    window.Fim,
			Status:                 entity.InstancePendente,
			UpdatedAt:              now,
		}
		if err := periodos.Save(instance); err != nil {
			log.Errorf("failed to materialize instance: %v", err)
			return nil, apierror.InternalServerError
		}
		resp.Criados++
	}
	return resp, nil
}

// GetPeriodos lists instances with the type-based visibility rule applied:
// when a reference month is requested, monthly instances of that month show,
// quarterly ones only in the closing month of their quarter, and annual ones
// of the same year always show. Normal users only see their own work.
func (s *DefaultPeriodoService) GetPeriodos(actor *entity.Usuario, filter repository.PeriodoFilter) ([]*contract.PeriodoResponse, apierror.ErrorResponse) {
	label := filter.PeriodoLabel
	if err := s.Validate.Var(label, "omitempty,periodo"); err != nil {
		return nil, apierror.InvalidPeriodError
	}

	if actor.Tipo == entity.UserNormal {
		filter.ResponsavelID = actor.ID
	}

	periodos := repository.NewPeriodoRepository(s.DB)
	instances, err := periodos.FindFiltered(filter)
	if err != nil {
		log.Errorf("failed to fetch instances: %v", err)
		return nil, apierror.InternalServerError
	}

	scope := s.Policy.SectorScope(actor)
	resp := make([]*contract.PeriodoResponse, 0, len(instances))
	for _, instance := range instances {
		rel := instance.RelacionamentoTarefa
		if rel == nil || rel.Tarefa == nil {
			continue
		}

		if scope != nil && (rel.Tarefa.SetorID == nil || *rel.Tarefa.SetorID != *scope) {
			continue
		}

		if label != "" && !visibleIn(rel.Tarefa.Tipo, label, instance.PeriodoLabel) {
			continue
		}
		resp = append(resp, toPeriodoResponse(instance, rel))
	}
	return resp, nil
}

// IniciarPeriodo moves a pending instance to fazendo.
func (s *DefaultPeriodoService) IniciarPeriodo(actor *entity.Usuario, periodoID int64) (*contract.PeriodoResponse, apierror.ErrorResponse) {
	periodos := repository.NewPeriodoRepository(s.DB)

	instance, apierr := s.findPeriodo(periodos, periodoID)
	if apierr != nil {
		return nil, apierr
	}

	if instance.Status != entity.InstancePendente {
		return nil, apierror.NewBusinessRuleError("periodo %d is not pending (%s)", periodoID, instance.Status)
	}

	instance.Status = entity.InstanceFazendo
	instance.UpdatedAt = utils.NowUTC()
	if err := periodos.Save(instance); err != nil {
		log.Errorf("failed to start instance %d: %v", periodoID, err)
		return nil, apierror.InternalServerError
	}
	return toPeriodoResponse(instance, instance.RelacionamentoTarefa), nil
}

// ConcluirPeriodo delivers an instance. Completing an instance that was
// already delivered is an implicit rectification: the delivery stands and a
// correction is recorded on top of it.
func (s *DefaultPeriodoService) ConcluirPeriodo(actor *entity.Usuario, periodoID int64) (*contract.PeriodoResponse, apierror.ErrorResponse) {
	var resp *contract.PeriodoResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		periodos := repository.NewPeriodoRepository(tx)

		instance, ferr := s.findPeriodo(periodos, periodoID)
		if ferr != nil {
			apierr = ferr
			return errRollback
		}

		if instance.Status.Concluido() {
			apierr = s.retificar(periodos, instance, actor, "Retificação implícita por nova conclusão")
		} else {
			apierr = s.concluir(periodos, instance)
		}

		if apierr != nil {
			return errRollback
		}
		resp = toPeriodoResponse(instance, instance.RelacionamentoTarefa)
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("failed to complete instance %d: %v", periodoID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

// RetificarPeriodo explicitly rectifies a delivered instance; the reason is
// mandatory here, unlike the implicit flavor.
func (s *DefaultPeriodoService) RetificarPeriodo(actor *entity.Usuario, periodoID int64, req *contract.RetificarRequest) (*contract.PeriodoResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.PeriodoResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		periodos := repository.NewPeriodoRepository(tx)

		instance, ferr := s.findPeriodo(periodos, periodoID)
		if ferr != nil {
			apierr = ferr
			return errRollback
		}

		if !instance.Status.Concluido() {
			apierr = apierror.NewBusinessRuleError("periodo %d was never delivered and cannot be rectified", periodoID)
			return errRollback
		}

		if apierr = s.retificar(periodos, instance, actor, req.Motivo); apierr != nil {
			return errRollback
		}
		resp = toPeriodoResponse(instance, instance.RelacionamentoTarefa)
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("failed to rectify instance %d: %v", periodoID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

// ReabrirPeriodo returns a rectified instance to the pending state. The
// rectification audit trail is never erased.
func (s *DefaultPeriodoService) ReabrirPeriodo(actor *entity.Usuario, periodoID int64) (*contract.PeriodoResponse, apierror.ErrorResponse) {
	periodos := repository.NewPeriodoRepository(s.DB)

	instance, apierr := s.findPeriodo(periodos, periodoID)
	if apierr != nil {
		return nil, apierr
	}

	if instance.Status != entity.InstanceRetificada {
		return nil, apierror.NewBusinessRuleError("periodo %d is not rectified (%s)", periodoID, instance.Status)
	}

	instance.Status = entity.InstancePendente
	instance.UpdatedAt = utils.NowUTC()
	if err := periodos.Save(instance); err != nil {
		log.Errorf("failed to reopen instance %d: %v", periodoID, err)
		return nil, apierror.InternalServerError
	}
	return toPeriodoResponse(instance, instance.RelacionamentoTarefa), nil
}

// GetResumo builds the dashboard header counts under the caller's scope.
func (s *DefaultPeriodoService) GetResumo(actor *entity.Usuario) (*contract.ResumoResponse, apierror.ErrorResponse) {
	resp := &contract.ResumoResponse{}

	abertas := s.DB.Model(&entity.MudancaTributacaoPendente{}).
		Where("status IN ?", []entity.TicketStatus{entity.TicketPendente, entity.TicketEmRevisao})
	if err := abertas.Count(&resp.MudancasAbertas).Error; err != nil {
		log.Errorf("failed to count open mudancas: %v", err)
		return nil, apierror.InternalServerError
	}

	counts := map[entity.InstanceStatus]*int64{
		entity.InstancePendente:   &resp.PeriodosPendentes,
		entity.InstanceFazendo:    &resp.PeriodosFazendo,
		entity.InstanceConcluida:  &resp.PeriodosConcluidos,
		entity.InstanceRetificada: &resp.PeriodosRetificados,
	}

	for status, dest := range counts {
		query := s.DB.Model(&entity.Periodo{}).
			Joins("JOIN relacionamento_tarefas ON relacionamento_tarefas.id = periodos.relacionamento_tarefa_id").
			Where("periodos.status = ?", status)

		if actor.Tipo == entity.UserNormal {
			query = query.Where("relacionamento_tarefas.responsavel_id = ?", actor.ID)
		}

		if err := query.Count(dest).Error; err != nil {
			log.Errorf("failed to count instances: %v", err)
			return nil, apierror.InternalServerError
		}
	}
	return resp, nil
}

func (s *DefaultPeriodoService) findPeriodo(periodos *repository.DefaultPeriodoRepository, periodoID int64) (*entity.Periodo, apierror.ErrorResponse) {
	instance, err := periodos.FindByID(periodoID)
	if err != nil {
		log.Errorf("failed to fetch instance: %v", err)
		return nil, apierror.InternalServerError
	}

	if instance == nil {
		return nil, apierror.NewNotFoundError("periodo", periodoID)
	}
	return instance, nil
}

func (s *DefaultPeriodoService) concluir(periodos *repository.DefaultPeriodoRepository, instance *entity.Periodo) apierror.ErrorResponse {
	hoje := s.Clock.Today()
	instance.Status = entity.InstanceConcluida
	instance.DataConclusao = &hoje
	instance.UpdatedAt = utils.NowUTC()

	if err := periodos.Save(instance); err != nil {
		log.Errorf("failed to complete instance %d: %v", instance.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultPeriodoService) retificar(periodos *repository.DefaultPeriodoRepository, instance *entity.Periodo, actor *entity.Usuario, motivo string) apierror.ErrorResponse {
	hoje := s.Clock.Today()
	instance.Status = entity.InstanceRetificada
	instance.DataRetificacao = &hoje
	instance.ContadorRetificacoes++
	instance.UpdatedAt = utils.NowUTC()

	if err := periodos.Save(instance); err != nil {
		log.Errorf("failed to rectify instance %d: %v", instance.ID, err)
		return apierror.InternalServerError
	}

	audit := &entity.Retificacao{
		PeriodoID: instance.ID,
		UsuarioID: actor.ID,
		Motivo:    motivo,
		CreatedAt: utils.NowUTC(),
	}
	if err := periodos.SaveRetificacao(audit); err != nil {
		log.Errorf("failed to record rectification: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

// visibleIn applies the type-based visibility rule for a requested month,
// additionally requiring the instance to belong to the same year.
func visibleIn(cycle entity.CycleType, requestedLabel, instanceLabel string) bool {
	switch cycle {
	case entity.CycleMensal:
		return instanceLabel == requestedLabel

	case entity.CycleTrimestral, entity.CycleAnual:
		year, _, ok := period.ParseMonthlyLabel(requestedLabel)
		if !ok {
			return false
		}
		if !strings.HasPrefix(instanceLabel, strconv.Itoa(year)+"-") {
			return false
		}
		return period.ShouldShowTask(cycle, requestedLabel, instanceLabel)
	}
	return false
}

// quarterClosingMonth maps a month to the closing month of its quarter.
func quarterClosingMonth(mes int) int {
	return ((mes-1)/3)*3 + 3
}

func toPeriodoResponse(instance *entity.Periodo, rel *entity.RelacionamentoTarefa) *contract.PeriodoResponse {
	resp := &contract.PeriodoResponse{
		ID:                   instance.ID,
		RelacionamentoID:     instance.RelacionamentoTarefaID,
		PeriodoLabel:         instance.PeriodoLabel,
		Inicio:               instance.Inicio.Format("2006-01-02"),
		Fim:                  instance.Fim.Format("2006-01-02"),
		Status:               string(instance.Status),
		DataConclusao:        utils.FormatDate(instance.DataConclusao),
		DataRetificacao:      utils.FormatDate(instance.DataRetificacao),
		ContadorRetificacoes: instance.ContadorRetificacoes,
	}

	if rel == nil {
		return resp
	}

	resp.TarefaID = rel.TarefaID
	resp.EmpresaID = rel.EmpresaID
	resp.ResponsavelID = rel.ResponsavelID
	resp.TarefaAntiga = !rel.VersaoAtual
	if rel.MotivoDesativacao != nil {
		resp.MotivoDesativacao = *rel.MotivoDesativacao
	}
	if rel.Tarefa != nil {
		resp.Tarefa = rel.Tarefa.Nome
		resp.Tipo = string(rel.Tarefa.Tipo)
	}
	if rel.Empresa != nil {
		resp.Empresa = rel.Empresa.Nome
	}
	return resp
}
