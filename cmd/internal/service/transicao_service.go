package service

import (
	"errors"
	"fmt"
	"time"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/domain/period"
	"contatask/cmd/internal/domain/policy"
	"contatask/cmd/internal/domain/sqlite/repository"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

// errRollback aborts the surrounding transaction once an ErrorResponse has
// already been captured for the caller.
var errRollback = errors.New("rollback")

// DefaultTransicaoService owns the regime transition: the single writer of
// Empresa.TributacaoID and of the regime-binding ledger. Every call runs in
// one transaction; a failure at any step leaves no partial state behind.
type DefaultTransicaoService struct {
	DB       *gorm.DB
	Clock    period.Clock
	Policy   *policy.AcessoPolicy
	Validate *validator.Validate
}

func NewTransicaoService(db *gorm.DB, clock period.Clock, pol *policy.AcessoPolicy, validate *validator.Validate) *DefaultTransicaoService {
	return &DefaultTransicaoService{
		DB:       db,
		Clock:    clock,
		Policy:   pol,
		Validate: validate,
	}
}

// TransitionRegime switches a company to a new tax regime: it closes the
// active regime binding, opens a new one, versions off the regime-specific
// assignments that have no work in flight, provisions the new regime's task
// set unassigned and records a review ticket for the managers.
func (s *DefaultTransicaoService) TransitionRegime(actor *entity.Usuario, empresaID int64, req *contract.TransicaoRequest) (*contract.TransicaoResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanTransitionRegime(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.TransicaoResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		resp, apierr = s.transition(tx, actor, empresaID, req)
		if apierr != nil {
			return errRollback
		}
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("regime transition failed for empresa %d: %v", empresaID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (s *DefaultTransicaoService) transition(tx *gorm.DB, actor *entity.Usuario, empresaID int64, req *contract.TransicaoRequest) (*contract.TransicaoResponse, apierror.ErrorResponse) {
	empresas := repository.NewEmpresaRepository(tx)
	catalogos := repository.NewCatalogoRepository(tx)
	vinculacoes := repository.NewVinculacaoRepository(tx)
	rels := repository.NewRelacionamentoRepository(tx)
	periodos := repository.NewPeriodoRepository(tx)
	tarefas := repository.NewTarefaRepository(tx)
	mudancas := repository.NewMudancaRepository(tx)

	empresa, err := empresas.FindByID(empresaID)
	if err != nil {
		log.Errorf("failed to fetch empresa: %v", err)
		return nil, apierror.InternalServerError
	}

	if empresa == nil {
		return nil, apierror.NewNotFoundError("empresa", empresaID)
	}

	if !empresa.Ativo {
		return nil, apierror.NewBusinessRuleError("empresa %d is deactivated", empresaID)
	}

	nova, err := catalogos.FindTributacaoByID(req.TributacaoID)
	if err != nil {
		log.Errorf("failed to fetch tributacao: %v", err)
		return nil, apierror.InternalServerError
	}

	if nova == nil {
		return nil, apierror.NewNotFoundError("tributacao", req.TributacaoID)
	}

	if empresa.TributacaoID != nil && *empresa.TributacaoID == nova.ID {
		return nil, apierror.NewBusinessRuleError("empresa %d is already under regime %s", empresaID, nova.Nome)
	}

	aberta, err := mudancas.FindAbertaByEmpresa(empresaID)
	if err != nil {
		log.Errorf("failed to check open mudancas: %v", err)
		return nil, apierror.InternalServerError
	}

	if aberta != nil {
		return nil, apierror.NewConflictError(
			"empresa %d already has an open regime change (%s) awaiting review", empresaID, aberta.Referencia)
	}

	hoje := s.Clock.Today()
	now := utils.NowUTC()

	anterior, apierr := s.closeVinculacao(vinculacoes, catalogos, empresa, hoje)
	if apierr != nil {
		return nil, apierr
	}

	novaVinculacao := &entity.VinculacaoEmpresaTributacao{
		EmpresaID:    empresaID,
		TributacaoID: nova.ID,
		DataInicio:   hoje,
		Ativo:        true,
	}
	if err := vinculacoes.Save(novaVinculacao); err != nil {
		log.Errorf("failed to open vinculacao: %v", err)
		return nil, apierror.InternalServerError
	}

	anteriorNome := ""
	motivoDesativacao := "Mudança de tributação para " + nova.Nome
	if anterior != nil {
		anteriorNome = anterior.Nome
		motivoDesativacao = fmt.Sprintf("Mudança de tributação: %s -> %s", anterior.Nome, nova.Nome)
	}

	desativados, preservados, apierr := s.versionOff(rels, periodos, empresaID, hoje, motivoDesativacao, now)
	if apierr != nil {
		return nil, apierr
	}

	reativados, criados, apierr := s.provision(rels, tarefas, empresaID, nova.ID, novaVinculacao.ID, hoje, now)
	if apierr != nil {
		return nil, apierr
	}

	motivo := req.Motivo
	if motivo == "" {
		motivo = "Mudança de tributação registrada pelo supervisor"
	}

	mudanca := &entity.MudancaTributacaoPendente{
		Referencia:       uuid.NewString(),
		EmpresaID:        empresaID,
		TributacaoNovaID: nova.ID,
		DataMudanca:      hoje,
		Motivo:           motivo,
		Status:           entity.TicketPendente,
		CriadoPorID:      actor.ID,
		CreatedAt:        now,
	}
	if anterior != nil {
		mudanca.TributacaoAnteriorID = &anterior.ID
	}

	if err := mudancas.Save(mudanca); err != nil {
		log.Errorf("failed to record mudanca: %v", err)
		return nil, apierror.InternalServerError
	}

	empresa.TributacaoID = &nova.ID
	empresa.UpdatedAt = now
	if err := empresas.Save(empresa); err != nil {
		log.Errorf("failed to update empresa regime: %v", err)
		return nil, apierror.InternalServerError
	}

	semResponsavel, err := rels.CountSemResponsavel(empresaID)
	if err != nil {
		log.Errorf("failed to count unassigned slots: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := toMudancaResponse(mudanca, semResponsavel)
	resp.Empresa = empresa.Nome
	resp.TributacaoAnterior = anteriorNome
	resp.TributacaoNova = nova.Nome

	return &contract.TransicaoResponse{
		Mudanca:            resp,
		TarefasDesativadas: desativados,
		TarefasPreservadas: preservados,
		TarefasReativadas:  reativados,
		TarefasCriadas:     criados,
	}, nil
}

// closeVinculacao ends the active regime binding, if any, and resolves the
// previous regime. A company on its first assignment has neither.
func (s *DefaultTransicaoService) closeVinculacao(
	vinculacoes *repository.DefaultVinculacaoRepository,
	catalogos *repository.DefaultCatalogoRepository,
	empresa *entity.Empresa,
	hoje time.Time,
) (*entity.Tributacao, apierror.ErrorResponse) {
	atual, err := vinculacoes.FindAtivaByEmpresa(empresa.ID)
	if err != nil {
		log.Errorf("failed to fetch active vinculacao: %v", err)
		return nil, apierror.InternalServerError
	}

	var anteriorID *int64
	if atual != nil {
		fim := hoje
		atual.Ativo = false
		atual.DataFim = &fim
		if err := vinculacoes.Save(atual); err != nil {
			log.Errorf("failed to close vinculacao: %v", err)
			return nil, apierror.InternalServerError
		}
		anteriorID = &atual.TributacaoID
	} else {
		// Ledger and denormalized pointer can disagree only on legacy data;
		// trust the pointer as the previous regime.
		anteriorID = empresa.TributacaoID
	}

	if anteriorID == nil {
		return nil, nil
	}

	anterior, err := catalogos.FindTributacaoByID(*anteriorID)
	if err != nil {
		log.Errorf("failed to fetch previous tributacao: %v", err)
		return nil, apierror.InternalServerError
	}
	return anterior, nil
}

// versionOff closes the current-version assignments that should not survive
// the regime switch. Common tasks always survive; so does any assignment
// whose current-period instance exists and was never delivered, to keep work
// in flight with its owner.
func (s *DefaultTransicaoService) versionOff(
	rels *repository.DefaultRelacionamentoRepository,
	periodos *repository.DefaultPeriodoRepository,
	empresaID int64,
	hoje time.Time,
	motivo string,
	now int64,
) (desativados, preservados int, apierr apierror.ErrorResponse) {
	atuais, err := rels.FindVersaoAtualByEmpresa(empresaID)
	if err != nil {
		log.Errorf("failed to fetch current assignments: %v", err)
		return 0, 0, apierror.InternalServerError
	}

	for _, rel := range atuais {
		if rel.Tarefa == nil || rel.Tarefa.TarefaComum {
			continue
		}

		emAndamento, err := s.hasUnfinishedInstance(periodos, rel, hoje)
		if err != nil {
			log.Errorf("failed to check in-flight work: %v", err)
			return 0, 0, apierror.InternalServerError
		}

		if emAndamento {
			preservados++
			continue
		}

		fim := hoje
		reason := motivo
		rel.VersaoAtual = false
		rel.Status = entity.AssignmentInativa
		rel.DataFim = &fim
		rel.MotivoDesativacao = &reason
		rel.UpdatedAt = now
		if err := rels.Save(rel); err != nil {
			log.Errorf("failed to version off assignment %d: %v", rel.ID, err)
			return 0, 0, apierror.InternalServerError
		}
		desativados++
	}
	return desativados, preservados, nil
}

// hasUnfinishedInstance reports whether the assignment has a current-period
// instance that was materialized but never delivered.
func (s *DefaultTransicaoService) hasUnfinishedInstance(
	periodos *repository.DefaultPeriodoRepository,
	rel *entity.RelacionamentoTarefa,
	hoje time.Time,
) (bool, error) {
	window, err := period.For(hoje.Year(), int(hoje.Month()), rel.Tarefa.Tipo)
	if err != nil {
		return false, err
	}

	instance, err := periodos.FindByRelacionamentoAndLabel(rel.ID, window.Label)
	if err != nil {
		return false, err
	}
	return instance != nil && !instance.Status.Concluido(), nil
}

// provision guarantees one unassigned current-version slot for every task of
// the new regime, reactivating the newest versioned-off row of the slot when
// one exists so its period history is preserved.
func (s *DefaultTransicaoService) provision(
	rels *repository.DefaultRelacionamentoRepository,
	tarefas *repository.DefaultTarefaRepository,
	empresaID, tributacaoID, vinculacaoID int64,
	hoje time.Time,
	now int64,
) (reativados, criados int, apierr apierror.ErrorResponse) {
	aplicaveis, err := tarefas.FindByTributacao(tributacaoID)
	if err != nil {
		log.Errorf("failed to fetch regime task set: %v", err)
		return 0, 0, apierror.InternalServerError
	}

	for _, tarefa := range aplicaveis {
		atual, err := rels.FindVersaoAtual(empresaID, tarefa.ID)
		if err != nil {
			log.Errorf("failed to check slot: %v", err)
			return 0, 0, apierror.InternalServerError
		}

		// Slot still live: either preserved in-flight work or a common task.
		if atual != nil {
			continue
		}

		antiga, err := rels.FindLatestInactive(empresaID, tarefa.ID)
		if err != nil {
			log.Errorf("failed to fetch reactivation candidate: %v", err)
			return 0, 0, apierror.InternalServerError
		}

		if antiga != nil {
			antiga.VersaoAtual = true
			antiga.Status = entity.AssignmentAtiva
			antiga.ResponsavelID = nil
			antiga.VinculacaoID = &vinculacaoID
			antiga.DataInicio = hoje
			antiga.DataFim = nil
			antiga.MotivoDesativacao = nil
			antiga.UpdatedAt = now
			if err := rels.Save(antiga); err != nil {
				log.Errorf("failed to reactivate assignment %d: %v", antiga.ID, err)
				return 0, 0, apierror.InternalServerError
			}
			reativados++
			continue
		}

		vincID := vinculacaoID
		novo := &entity.RelacionamentoTarefa{
			EmpresaID:    empresaID,
			TarefaID:     tarefa.ID,
			VinculacaoID: &vincID,
			Status:       entity.AssignmentAtiva,
			VersaoAtual:  true,
			DataInicio:   hoje,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := rels.Save(novo); err != nil {
			log.Errorf("failed to provision slot: %v", err)
			return 0, 0, apierror.InternalServerError
		}
		criados++
	}
	return reativados, criados, nil
}
