package service

import (
	"fmt"

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

// DefaultMudancaService is the manager surface over regime-change review
// tickets: listing the unassigned slots of a change, assigning or skipping
// them and closing or cancelling the ticket.
type DefaultMudancaService struct {
	DB       *gorm.DB
	Clock    period.Clock
	Policy   *policy.AcessoPolicy
	Validate *validator.Validate
}

func NewMudancaService(db *gorm.DB, clock period.Clock, pol *policy.AcessoPolicy, validate *validator.Validate) *DefaultMudancaService {
	return &DefaultMudancaService{
		DB:       db,
		Clock:    clock,
		Policy:   pol,
		Validate: validate,
	}
}

// GetMudancasAbertas lists open tickets for review. Gerentes only see
// tickets that still carry unassigned slots of their own sector.
func (s *DefaultMudancaService) GetMudancasAbertas(actor *entity.Usuario) ([]*contract.MudancaResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanReviewMudancas(actor); apierr != nil {
		return nil, apierr
	}

	mudancas := repository.NewMudancaRepository(s.DB)
	rels := repository.NewRelacionamentoRepository(s.DB)

	abertas, err := mudancas.FindAbertas()
	if err != nil {
		log.Errorf("failed to fetch open mudancas: %v", err)
		return nil, apierror.InternalServerError
	}

	scope := s.Policy.SectorScope(actor)
	resp := make([]*contract.MudancaResponse, 0, len(abertas))
	for _, mudanca := range abertas {
		pendentes, err := rels.FindSemResponsavel(mudanca.EmpresaID, scope)
		if err != nil {
			log.Errorf("failed to count unassigned slots: %v", err)
			return nil, apierror.InternalServerError
		}

		if scope != nil && len(pendentes) == 0 {
			continue
		}
		resp = append(resp, toMudancaResponse(mudanca, int64(len(pendentes))))
	}
	return resp, nil
}

// GetMudancaTarefas lists the unassigned slots of one ticket, narrowed to
// the manager's sector when applicable.
func (s *DefaultMudancaService) GetMudancaTarefas(actor *entity.Usuario, mudancaID int64) ([]*contract.MudancaTarefaResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanReviewMudancas(actor); apierr != nil {
		return nil, apierr
	}

	mudancas := repository.NewMudancaRepository(s.DB)
	rels := repository.NewRelacionamentoRepository(s.DB)

	mudanca, err := mudancas.FindByID(mudancaID)
	if err != nil {
		log.Errorf("failed to fetch mudanca: %v", err)
		return nil, apierror.InternalServerError
	}

	if mudanca == nil {
		return nil, apierror.NewNotFoundError("mudanca", mudancaID)
	}

	pendentes, err := rels.FindSemResponsavel(mudanca.EmpresaID, s.Policy.SectorScope(actor))
	if err != nil {
		log.Errorf("failed to fetch unassigned slots: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.MudancaTarefaResponse, 0, len(pendentes))
	for _, rel := range pendentes {
		if rel.Tarefa == nil {
			continue
		}

		item := &contract.MudancaTarefaResponse{
			RelacionamentoID: rel.ID,
			TarefaID:         rel.TarefaID,
			Nome:             rel.Tarefa.Nome,
			Tipo:             string(rel.Tarefa.Tipo),
			TarefaComum:      rel.Tarefa.TarefaComum,
		}
		if rel.Tarefa.Setor != nil {
			item.Setor = rel.Tarefa.Setor.Nome
		}
		resp = append(resp, item)
	}
	return resp, nil
}

// AtribuirTarefas assigns unassigned slots of a ticket in bulk. Invalid
// items are skipped and reported; the valid ones are applied atomically.
// When no regime-specific slot remains unassigned, the ticket auto-closes.
func (s *DefaultMudancaService) AtribuirTarefas(actor *entity.Usuario, mudancaID int64, req *contract.AtribuirRequest) (*contract.RevisaoResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanReviewMudancas(actor); apierr != nil {
		return nil, apierr
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.RevisaoResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		resp, apierr = s.atribuir(tx, actor, mudancaID, req)
		if apierr != nil {
			return errRollback
		}
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("bulk assignment failed for mudanca %d: %v", mudancaID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (s *DefaultMudancaService) atribuir(tx *gorm.DB, actor *entity.Usuario, mudancaID int64, req *contract.AtribuirRequest) (*contract.RevisaoResponse, apierror.ErrorResponse) {
	mudancas := repository.NewMudancaRepository(tx)
	rels := repository.NewRelacionamentoRepository(tx)
	usuarios := repository.NewUsuarioRepository(tx)

	mudanca, apierr := s.findAberta(mudancas, mudancaID)
	if apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	resp := &contract.RevisaoResponse{Erros: []string{}}

	for _, item := range req.Atribuicoes {
		rel, err := rels.FindByID(item.RelacionamentoID)
		if err != nil {
			log.Errorf("failed to fetch assignment: %v", err)
			return nil, apierror.InternalServerError
		}

		if rel == nil || rel.EmpresaID != mudanca.EmpresaID {
			resp.Erros = append(resp.Erros, fmt.Sprintf("relacionamento %d não pertence a esta mudança", item.RelacionamentoID))
			continue
		}

		if !rel.VersaoAtual {
			resp.Erros = append(resp.Erros, fmt.Sprintf("relacionamento %d não é a versão atual", item.RelacionamentoID))
			continue
		}

		responsavel, err := usuarios.FindByID(item.ResponsavelID)
		if err != nil {
			log.Errorf("failed to fetch responsavel: %v", err)
			return nil, apierror.InternalServerError
		}

		if responsavel == nil {
			resp.Erros = append(resp.Erros, fmt.Sprintf("usuário %d não encontrado", item.ResponsavelID))
			continue
		}

		if verr := s.Policy.CanAssignTo(actor, responsavel); verr != nil {
			resp.Erros = append(resp.Erros, fmt.Sprintf("usuário %d: atribuição não permitida", item.ResponsavelID))
			continue
		}

		if rel.Tarefa != nil {
			if verr := s.Policy.CanTouchTarefa(actor, rel.Tarefa); verr != nil {
				resp.Erros = append(resp.Erros, fmt.Sprintf("tarefa %d fora do seu setor", rel.TarefaID))
				continue
			}
		}

		respID := responsavel.ID
		rel.ResponsavelID = &respID
		rel.UpdatedAt = now
		if err := rels.Save(rel); err != nil {
			log.Errorf("failed to assign slot %d: %v", rel.ID, err)
			return nil, apierror.InternalServerError
		}
		resp.Atualizados++
	}

	if resp.Atualizados > 0 {
		if apierr := s.touchRevisao(mudancas, mudanca, actor); apierr != nil {
			return nil, apierr
		}
	}

	return s.finishRevisao(mudancas, rels, mudanca, actor, resp)
}

// DesativarTarefas marks slots of a ticket as intentionally unassigned:
// the manager judged them not applicable and they are versioned off.
func (s *DefaultMudancaService) DesativarTarefas(actor *entity.Usuario, mudancaID int64, req *contract.DesativarRequest) (*contract.RevisaoResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanReviewMudancas(actor); apierr != nil {
		return nil, apierr
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.RevisaoResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		resp, apierr = s.desativar(tx, actor, mudancaID, req)
		if apierr != nil {
			return errRollback
		}
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("bulk skip failed for mudanca %d: %v", mudancaID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (s *DefaultMudancaService) desativar(tx *gorm.DB, actor *entity.Usuario, mudancaID int64, req *contract.DesativarRequest) (*contract.RevisaoResponse, apierror.ErrorResponse) {
	mudancas := repository.NewMudancaRepository(tx)
	rels := repository.NewRelacionamentoRepository(tx)

	mudanca, apierr := s.findAberta(mudancas, mudancaID)
	if apierr != nil {
		return nil, apierr
	}

	hoje := s.Clock.Today()
	now := utils.NowUTC()
	resp := &contract.RevisaoResponse{Erros: []string{}}

	for _, relID := range req.RelacionamentosIDs {
		rel, err := rels.FindByID(relID)
		if err != nil {
			log.Errorf("failed to fetch assignment: %v", err)
			return nil, apierror.InternalServerError
		}

		if rel == nil || rel.EmpresaID != mudanca.EmpresaID {
			resp.Erros = append(resp.Erros, fmt.Sprintf("relacionamento %d não pertence a esta mudança", relID))
			continue
		}

		if !rel.VersaoAtual {
			resp.Erros = append(resp.Erros, fmt.Sprintf("relacionamento %d não é a versão atual", relID))
			continue
		}

		if rel.Tarefa != nil {
			if verr := s.Policy.CanTouchTarefa(actor, rel.Tarefa); verr != nil {
				resp.Erros = append(resp.Erros, fmt.Sprintf("tarefa %d fora do seu setor", rel.TarefaID))
				continue
			}
		}

		fim := hoje
		motivo := "Marcada como não aplicável na revisão da mudança de tributação"
		rel.VersaoAtual = false
		rel.Status = entity.AssignmentInativa
		rel.DataFim = &fim
		rel.MotivoDesativacao = &motivo
		rel.UpdatedAt = now
		if err := rels.Save(rel); err != nil {
			log.Errorf("failed to version off slot %d: %v", rel.ID, err)
			return nil, apierror.InternalServerError
		}
		resp.Desativados++
	}

	if resp.Desativados > 0 {
		if apierr := s.touchRevisao(mudancas, mudanca, actor); apierr != nil {
			return nil, apierr
		}
	}

	return s.finishRevisao(mudancas, rels, mudanca, actor, resp)
}

// ConcluirMudanca explicitly closes a ticket. It refuses while regime-specific
// slots remain unassigned; skipping them first is the explicit alternative.
func (s *DefaultMudancaService) ConcluirMudanca(actor *entity.Usuario, mudancaID int64, req *contract.RevisaoRequest) (*contract.MudancaResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanReviewMudancas(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	mudancas := repository.NewMudancaRepository(s.DB)
	rels := repository.NewRelacionamentoRepository(s.DB)

	mudanca, apierr := s.findAberta(mudancas, mudancaID)
	if apierr != nil {
		return nil, apierr
	}

	pendentes, err := rels.CountSemResponsavel(mudanca.EmpresaID)
	if err != nil {
		log.Errorf("failed to count unassigned slots: %v", err)
		return nil, apierror.InternalServerError
	}

	if pendentes > 0 {
		return nil, apierror.NewBusinessRuleError(
			"mudanca %d still has %d unassigned tasks; assign or skip them first", mudancaID, pendentes)
	}

	if apierr := s.closeMudanca(mudancas, mudanca, actor, entity.TicketConcluida, req.Observacoes); apierr != nil {
		return nil, apierr
	}
	return toMudancaResponse(mudanca, 0), nil
}

// CancelarMudanca closes a ticket without requiring its slots to be handled.
// The regime switch itself is never rolled back here.
func (s *DefaultMudancaService) CancelarMudanca(actor *entity.Usuario, mudancaID int64, req *contract.RevisaoRequest) (*contract.MudancaResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanReviewMudancas(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	mudancas := repository.NewMudancaRepository(s.DB)
	rels := repository.NewRelacionamentoRepository(s.DB)

	mudanca, apierr := s.findAberta(mudancas, mudancaID)
	if apierr != nil {
		return nil, apierr
	}

	if apierr := s.closeMudanca(mudancas, mudanca, actor, entity.TicketCancelada, req.Observacoes); apierr != nil {
		return nil, apierr
	}

	pendentes, err := rels.CountSemResponsavel(mudanca.EmpresaID)
	if err != nil {
		log.Errorf("failed to count unassigned slots: %v", err)
		return nil, apierror.InternalServerError
	}
	return toMudancaResponse(mudanca, pendentes), nil
}

func (s *DefaultMudancaService) findAberta(mudancas *repository.DefaultMudancaRepository, mudancaID int64) (*entity.MudancaTributacaoPendente, apierror.ErrorResponse) {
	mudanca, err := mudancas.FindByID(mudancaID)
	if err != nil {
		log.Errorf("failed to fetch mudanca: %v", err)
		return nil, apierror.InternalServerError
	}

	if mudanca == nil {
		return nil, apierror.NewNotFoundError("mudanca", mudancaID)
	}

	if !mudanca.Status.Aberto() {
		return nil, apierror.NewConflictError("mudanca %d is already closed (%s)", mudancaID, mudanca.Status)
	}
	return mudanca, nil
}

// touchRevisao moves a pristine ticket to em_revisao on its first action.
func (s *DefaultMudancaService) touchRevisao(mudancas *repository.DefaultMudancaRepository, mudanca *entity.MudancaTributacaoPendente, actor *entity.Usuario) apierror.ErrorResponse {
	if mudanca.Status != entity.TicketPendente {
		return nil
	}

	mudanca.Status = entity.TicketEmRevisao
	s.stampRevisao(mudanca, actor)
	if err := mudancas.Save(mudanca); err != nil {
		log.Errorf("failed to update mudanca status: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

// finishRevisao recomputes the unassigned count and auto-closes the ticket
// when no regime-specific slot of the company lacks an assignee.
func (s *DefaultMudancaService) finishRevisao(
	mudancas *repository.DefaultMudancaRepository,
	rels *repository.DefaultRelacionamentoRepository,
	mudanca *entity.MudancaTributacaoPendente,
	actor *entity.Usuario,
	resp *contract.RevisaoResponse,
) (*contract.RevisaoResponse, apierror.ErrorResponse) {
	pendentes, err := rels.CountSemResponsavel(mudanca.EmpresaID)
	if err != nil {
		log.Errorf("failed to count unassigned slots: %v", err)
		return nil, apierror.InternalServerError
	}

	resp.SemResponsavel = pendentes
	if pendentes == 0 && mudanca.Status.Aberto() {
		if apierr := s.closeMudanca(mudancas, mudanca, actor, entity.TicketConcluida, ""); apierr != nil {
			return nil, apierr
		}
		resp.MudancaConcluida = true
	}
	return resp, nil
}

func (s *DefaultMudancaService) closeMudanca(
	mudancas *repository.DefaultMudancaRepository,
	mudanca *entity.MudancaTributacaoPendente,
	actor *entity.Usuario,
	status entity.TicketStatus,
	observacoes string,
) apierror.ErrorResponse {
	mudanca.Status = status
	if observacoes != "" {
		mudanca.ObservacoesRevisao = observacoes
	}
	s.stampRevisao(mudanca, actor)

	if err := mudancas.Save(mudanca); err != nil {
		log.Errorf("failed to close mudanca %d: %v", mudanca.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultMudancaService) stampRevisao(mudanca *entity.MudancaTributacaoPendente, actor *entity.Usuario) {
	actorID := actor.ID
	agora := s.Clock.Today()
	mudanca.RevisadoPorID = &actorID
	mudanca.DataRevisao = &agora
}

func toMudancaResponse(mudanca *entity.MudancaTributacaoPendente, semResponsavel int64) *contract.MudancaResponse {
	resp := &contract.MudancaResponse{
		ID:             mudanca.ID,
		Referencia:     mudanca.Referencia,
		EmpresaID:      mudanca.EmpresaID,
		DataMudanca:    mudanca.DataMudanca.Format("2006-01-02"),
		Motivo:         mudanca.Motivo,
		Status:         string(mudanca.Status),
		SemResponsavel: semResponsavel,
		CreatedAt:      utils.FormatEpoch(mudanca.CreatedAt),
	}

	if mudanca.Empresa != nil {
		resp.Empresa = mudanca.Empresa.Nome
	}
	if mudanca.TributacaoAnterior != nil {
		resp.TributacaoAnterior = mudanca.TributacaoAnterior.Nome
	}
	if mudanca.TributacaoNova != nil {
		resp.TributacaoNova = mudanca.TributacaoNova.Nome
	}
	return resp
}
