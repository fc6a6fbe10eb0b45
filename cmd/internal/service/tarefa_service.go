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

type DefaultTarefaService struct {
	DB       *gorm.DB
	Clock    period.Clock
	Policy   *policy.AcessoPolicy
	Validate *validator.Validate
}

func NewTarefaService(db *gorm.DB, clock period.Clock, pol *policy.AcessoPolicy, validate *validator.Validate) *DefaultTarefaService {
	return &DefaultTarefaService{
		DB:       db,
		Clock:    clock,
		Policy:   pol,
		Validate: validate,
	}
}

func (s *DefaultTarefaService) CreateTarefa(actor *entity.Usuario, req *contract.CreateTarefaRequest) (*contract.TarefaResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	tarefas := repository.NewTarefaRepository(s.DB)
	catalogos := repository.NewCatalogoRepository(s.DB)

	if req.SetorID != nil {
		setor, err := catalogos.FindSetorByID(*req.SetorID)
		if err != nil {
			log.Errorf("failed to fetch setor: %v", err)
			return nil, apierror.InternalServerError
		}

		if setor == nil {
			return nil, apierror.NewNotFoundError("setor", *req.SetorID)
		}
	}

	if req.TributacaoID != nil {
		tributacao, err := catalogos.FindTributacaoByID(*req.TributacaoID)
		if err != nil {
			log.Errorf("failed to fetch tributacao: %v", err)
			return nil, apierror.InternalServerError
		}

		if tributacao == nil {
			return nil, apierror.NewNotFoundError("tributacao", *req.TributacaoID)
		}
	}

	now := utils.NowUTC()
	tarefa := &entity.Tarefa{
		Nome:         req.Nome,
		Tipo:         entity.CycleType(req.Tipo),
		Descricao:    req.Descricao,
		SetorID:      req.SetorID,
		TributacaoID: req.TributacaoID,
		TarefaComum:  req.TarefaComum,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := tarefas.Save(tarefa); err != nil {
		log.Errorf("failed to create tarefa: %v", err)
		return nil, apierror.InternalServerError
	}
	return toTarefaResponse(tarefa), nil
}

// GetTarefas lists task definitions; gerentes only see their own sector.
func (s *DefaultTarefaService) GetTarefas(actor *entity.Usuario) ([]*contract.TarefaResponse, apierror.ErrorResponse) {
	tarefas := repository.NewTarefaRepository(s.DB)

	all, err := tarefas.FindAll(s.Policy.SectorScope(actor))
	if err != nil {
		log.Errorf("failed to fetch tarefas: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.TarefaResponse, len(all))
	for i, tarefa := range all {
		resp[i] = toTarefaResponse(tarefa)
	}
	return resp, nil
}

// AddCatalogo binds a task to a regime in the catalog, so the task is
// provisioned automatically on transitions into that regime.
func (s *DefaultTarefaService) AddCatalogo(actor *entity.Usuario, req *contract.CatalogoRequest) apierror.ErrorResponse {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return apierr
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return apierror.FromValidationError(valerr)
	}

	tarefas := repository.NewTarefaRepository(s.DB)
	catalogos := repository.NewCatalogoRepository(s.DB)

	tarefa, err := tarefas.FindByID(req.TarefaID)
	if err != nil {
		log.Errorf("failed to fetch tarefa: %v", err)
		return apierror.InternalServerError
	}

	if tarefa == nil {
		return apierror.NewNotFoundError("tarefa", req.TarefaID)
	}

	tributacao, err := catalogos.FindTributacaoByID(req.TributacaoID)
	if err != nil {
		log.Errorf("failed to fetch tributacao: %v", err)
		return apierror.InternalServerError
	}

	if tributacao == nil {
		return apierror.NewNotFoundError("tributacao", req.TributacaoID)
	}

	vinculada, err := tarefas.PertenceATributacao(tarefa, req.TributacaoID)
	if err != nil {
		log.Errorf("failed to check catalog entry: %v", err)
		return apierror.InternalServerError
	}

	if vinculada {
		return apierror.NewConflictError("tarefa %d is already bound to regime %s", tarefa.ID, tributacao.Nome)
	}

	entry := &entity.TarefaTributacao{
		TarefaID:     tarefa.ID,
		TributacaoID: tributacao.ID,
		Obrigatoria:  req.Obrigatoria,
		Ordem:        req.Ordem,
		Ativo:        true,
	}
	if err := tarefas.SaveCatalogo(entry); err != nil {
		log.Errorf("failed to save catalog entry: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

// VincularTarefa is the manual bulk flow: bind one task to one employee
// across many companies. Companies that fail a check are reported and
// skipped; the rest are bound atomically. Annual tasks are excluded from
// this flow since their single yearly instance is provisioned by regime.
func (s *DefaultTarefaService) VincularTarefa(actor *entity.Usuario, req *contract.VincularRequest) (*contract.VincularResponse, apierror.ErrorResponse) {
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.VincularResponse
	var apierr apierror.ErrorResponse

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		resp, apierr = s.vincular(tx, actor, req)
		if apierr != nil {
			return errRollback
		}
		return nil
	})

	if apierr != nil {
		return nil, apierr
	}

	if err != nil {
		log.Errorf("bulk binding failed for tarefa %d: %v", req.TarefaID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (s *DefaultTarefaService) vincular(tx *gorm.DB, actor *entity.Usuario, req *contract.VincularRequest) (*contract.VincularResponse, apierror.ErrorResponse) {
	tarefas := repository.NewTarefaRepository(tx)
	usuarios := repository.NewUsuarioRepository(tx)
	empresas := repository.NewEmpresaRepository(tx)
	rels := repository.NewRelacionamentoRepository(tx)
	vinculacoes := repository.NewVinculacaoRepository(tx)

	tarefa, err := tarefas.FindByID(req.TarefaID)
	if err != nil {
		log.Errorf("failed to fetch tarefa: %v", err)
		return nil, apierror.InternalServerError
	}

	if tarefa == nil {
		return nil, apierror.NewNotFoundError("tarefa", req.TarefaID)
	}

	if apierr := s.Policy.CanTouchTarefa(actor, tarefa); apierr != nil {
		return nil, apierr
	}

	if tarefa.Tipo == entity.CycleAnual {
		return nil, apierror.NewBusinessRuleError("annual tasks cannot be bound manually")
	}

	funcionario, err := usuarios.FindByID(req.FuncionarioID)
	if err != nil {
		log.Errorf("failed to fetch funcionario: %v", err)
		return nil, apierror.InternalServerError
	}

	if funcionario == nil {
		return nil, apierror.NewNotFoundError("usuario", req.FuncionarioID)
	}

	if apierr := s.Policy.CanAssignTo(actor, funcionario); apierr != nil {
		return nil, apierr
	}

	hoje := s.Clock.Today()
	now := utils.NowUTC()
	resp := &contract.VincularResponse{Erros: []string{}}

	for _, empresaID := range req.EmpresasIDs {
		empresa, err := empresas.FindByID(empresaID)
		if err != nil {
			log.Errorf("failed to fetch empresa: %v", err)
			return nil, apierror.InternalServerError
		}

		if empresa == nil || !empresa.Ativo {
			resp.Erros = append(resp.Erros, fmt.Sprintf("empresa %d não encontrada ou inativa", empresaID))
			continue
		}

		compativel, apierr := s.checkCompatibilidade(tx, tarefa, empresa)
		if apierr != nil {
			return nil, apierr
		}

		if !compativel {
			resp.Erros = append(resp.Erros,
				fmt.Sprintf("empresa %d: tarefa não pertence à tributação da empresa", empresaID))
			continue
		}

		atual, err := rels.FindVersaoAtual(empresaID, tarefa.ID)
		if err != nil {
			log.Errorf("failed to check slot: %v", err)
			return nil, apierror.InternalServerError
		}

		if atual != nil {
			if atual.ResponsavelID != nil && *atual.ResponsavelID != funcionario.ID {
				resp.Erros = append(resp.Erros,
					fmt.Sprintf("empresa %d: tarefa já vinculada a outro responsável", empresaID))
				continue
			}

			if atual.ResponsavelID == nil {
				respID := funcionario.ID
				atual.ResponsavelID = &respID
				atual.UpdatedAt = now
				if err := rels.Save(atual); err != nil {
					log.Errorf("failed to assign slot %d: %v", atual.ID, err)
					return nil, apierror.InternalServerError
				}
				resp.Criados++
				continue
			}
			resp.Duplicados++
			continue
		}

		respID := funcionario.ID
		novo := &entity.RelacionamentoTarefa{
			EmpresaID:     empresaID,
			TarefaID:      tarefa.ID,
			ResponsavelID: &respID,
			Status:        entity.AssignmentAtiva,
			VersaoAtual:   true,
			DataInicio:    hoje,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		ativa, err := vinculacoes.FindAtivaByEmpresa(empresaID)
		if err != nil {
			log.Errorf("failed to fetch active vinculacao: %v", err)
			return nil, apierror.InternalServerError
		}
		if ativa != nil {
			novo.VinculacaoID = &ativa.ID
		}

		if err := rels.Save(novo); err != nil {
			log.Errorf("failed to bind tarefa: %v", err)
			return nil, apierror.InternalServerError
		}
		resp.Criados++
	}
	return resp, nil
}

// checkCompatibilidade reports whether a task may be bound to a company.
// Common tasks and tasks with no regime at all bind anywhere; a
// regime-specific task must match the company's current regime.
func (s *DefaultTarefaService) checkCompatibilidade(tx *gorm.DB, tarefa *entity.Tarefa, empresa *entity.Empresa) (bool, apierror.ErrorResponse) {
	if tarefa.TarefaComum || empresa.TributacaoID == nil {
		return true, nil
	}

	tarefas := repository.NewTarefaRepository(tx)
	compativel, err := tarefas.PertenceATributacao(tarefa, *empresa.TributacaoID)
	if err != nil {
		log.Errorf("failed to check regime compatibility: %v", err)
		return false, apierror.InternalServerError
	}

	if compativel {
		return true, nil
	}

	if tarefa.TributacaoID == nil {
		var count int64
		err := tx.Model(&entity.TarefaTributacao{}).
			Where("tarefa_id = ? AND ativo = ?", tarefa.ID, true).
			Count(&count).Error
		if err != nil {
			log.Errorf("failed to count catalog entries: %v", err)
			return false, apierror.InternalServerError
		}
		// Not in any catalog either: the task is regime-agnostic.
		return count == 0, nil
	}
	return false, nil
}

func toTarefaResponse(tarefa *entity.Tarefa) *contract.TarefaResponse {
	resp := &contract.TarefaResponse{
		ID:           tarefa.ID,
		Nome:         tarefa.Nome,
		Tipo:         string(tarefa.Tipo),
		Descricao:    tarefa.Descricao,
		SetorID:      tarefa.SetorID,
		TributacaoID: tarefa.TributacaoID,
		TarefaComum:  tarefa.TarefaComum,
		CreatedAt:    utils.FormatEpoch(tarefa.CreatedAt),
	}
	if tarefa.Setor != nil {
		resp.Setor = tarefa.Setor.Nome
	}
	return resp
}
