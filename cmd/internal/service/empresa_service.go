package service

import (
	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/domain/policy"
	"contatask/cmd/internal/domain/sqlite/repository"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

type DefaultEmpresaService struct {
	DB       *gorm.DB
	Policy   *policy.AcessoPolicy
	Validate *validator.Validate
}

func NewEmpresaService(db *gorm.DB, pol *policy.AcessoPolicy, validate *validator.Validate) *DefaultEmpresaService {
	return &DefaultEmpresaService{
		DB:       db,
		Policy:   pol,
		Validate: validate,
	}
}

// CreateEmpresa registers a company without a tax regime; the first regime
// is assigned through a regular transition so the binding ledger stays the
// single source of regime history.
func (s *DefaultEmpresaService) CreateEmpresa(actor *entity.Usuario, req *contract.CreateEmpresaRequest) (*contract.EmpresaResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	empresas := repository.NewEmpresaRepository(s.DB)
	existente, err := empresas.FindByCodigo(req.Codigo)
	if err != nil {
		log.Errorf("failed to check codigo: %v", err)
		return nil, apierror.InternalServerError
	}

	if existente != nil {
		return nil, apierror.NewConflictError("codigo '%s' is already registered", req.Codigo)
	}

	now := utils.NowUTC()
	empresa := &entity.Empresa{
		Codigo:    req.Codigo,
		Nome:      req.Nome,
		Ativo:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := empresas.Save(empresa); err != nil {
		log.Errorf("failed to create empresa: %v", err)
		return nil, apierror.InternalServerError
	}
	return toEmpresaResponse(empresa), nil
}

func (s *DefaultEmpresaService) GetEmpresas() ([]*contract.EmpresaResponse, apierror.ErrorResponse) {
	empresas := repository.NewEmpresaRepository(s.DB)

	ativas, err := empresas.FindAtivas()
	if err != nil {
		log.Errorf("failed to fetch empresas: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.EmpresaResponse, len(ativas))
	for i, empresa := range ativas {
		resp[i] = toEmpresaResponse(empresa)
	}
	return resp, nil
}

func (s *DefaultEmpresaService) GetEmpresaByID(empresaID int64) (*contract.EmpresaResponse, apierror.ErrorResponse) {
	empresas := repository.NewEmpresaRepository(s.DB)

	empresa, err := empresas.FindByID(empresaID)
	if err != nil {
		log.Errorf("failed to fetch empresa: %v", err)
		return nil, apierror.InternalServerError
	}

	if empresa == nil {
		return nil, apierror.NewNotFoundError("empresa", empresaID)
	}
	return toEmpresaResponse(empresa), nil
}

// GetVinculacoes lists the regime history of one company, newest first.
func (s *DefaultEmpresaService) GetVinculacoes(empresaID int64) ([]*contract.VinculacaoResponse, apierror.ErrorResponse) {
	empresas := repository.NewEmpresaRepository(s.DB)
	vinculacoes := repository.NewVinculacaoRepository(s.DB)

	empresa, err := empresas.FindByID(empresaID)
	if err != nil {
		log.Errorf("failed to fetch empresa: %v", err)
		return nil, apierror.InternalServerError
	}

	if empresa == nil {
		return nil, apierror.NewNotFoundError("empresa", empresaID)
	}

	historico, err := vinculacoes.FindByEmpresa(empresaID)
	if err != nil {
		log.Errorf("failed to fetch regime history: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.VinculacaoResponse, len(historico))
	for i, vinculacao := range historico {
		item := &contract.VinculacaoResponse{
			ID:         vinculacao.ID,
			DataInicio: vinculacao.DataInicio.Format("2006-01-02"),
			DataFim:    utils.FormatDate(vinculacao.DataFim),
			Ativo:      vinculacao.Ativo,
		}
		if vinculacao.Tributacao != nil {
			item.Tributacao = vinculacao.Tributacao.Nome
		}
		resp[i] = item
	}
	return resp, nil
}

// DeactivateEmpresa disables a company. History, assignments and instances
// all survive; the company simply stops appearing in active listings.
func (s *DefaultEmpresaService) DeactivateEmpresa(actor *entity.Usuario, empresaID int64) apierror.ErrorResponse {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return apierr
	}

	empresas := repository.NewEmpresaRepository(s.DB)
	empresa, err := empresas.FindByID(empresaID)
	if err != nil {
		log.Errorf("failed to fetch empresa: %v", err)
		return apierror.InternalServerError
	}

	if empresa == nil {
		return apierror.NewNotFoundError("empresa", empresaID)
	}

	empresa.Ativo = false
	empresa.UpdatedAt = utils.NowUTC()
	if err := empresas.Save(empresa); err != nil {
		log.Errorf("failed to deactivate empresa: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultEmpresaService) GetTributacoes() ([]*contract.TributacaoResponse, apierror.ErrorResponse) {
	catalogos := repository.NewCatalogoRepository(s.DB)

	tributacoes, err := catalogos.FindAllTributacoes()
	if err != nil {
		log.Errorf("failed to fetch tributacoes: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.TributacaoResponse, len(tributacoes))
	for i, tributacao := range tributacoes {
		resp[i] = &contract.TributacaoResponse{ID: tributacao.ID, Nome: tributacao.Nome}
	}
	return resp, nil
}

func (s *DefaultEmpresaService) GetSetores() ([]*contract.SetorResponse, apierror.ErrorResponse) {
	catalogos := repository.NewCatalogoRepository(s.DB)

	setores, err := catalogos.FindAllSetores()
	if err != nil {
		log.Errorf("failed to fetch setores: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.SetorResponse, len(setores))
	for i, setor := range setores {
		resp[i] = &contract.SetorResponse{ID: setor.ID, Nome: setor.Nome}
	}
	return resp, nil
}

func toEmpresaResponse(empresa *entity.Empresa) *contract.EmpresaResponse {
	resp := &contract.EmpresaResponse{
		ID:           empresa.ID,
		Codigo:       empresa.Codigo,
		Nome:         empresa.Nome,
		TributacaoID: empresa.TributacaoID,
		Ativo:        empresa.Ativo,
		CreatedAt:    utils.FormatEpoch(empresa.CreatedAt),
	}
	if empresa.Tributacao != nil {
		resp.Tributacao = empresa.Tributacao.Nome
	}
	return resp
}
