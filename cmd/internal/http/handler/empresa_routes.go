package handler

import (
	"net/http"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type EmpresaService interface {
	CreateEmpresa(actor *entity.Usuario, req *contract.CreateEmpresaRequest) (*contract.EmpresaResponse, apierror.ErrorResponse)
	GetEmpresas() ([]*contract.EmpresaResponse, apierror.ErrorResponse)
	GetEmpresaByID(empresaID int64) (*contract.EmpresaResponse, apierror.ErrorResponse)
	GetVinculacoes(empresaID int64) ([]*contract.VinculacaoResponse, apierror.ErrorResponse)
	DeactivateEmpresa(actor *entity.Usuario, empresaID int64) apierror.ErrorResponse
	GetTributacoes() ([]*contract.TributacaoResponse, apierror.ErrorResponse)
	GetSetores() ([]*contract.SetorResponse, apierror.ErrorResponse)
}

type TransicaoService interface {
	TransitionRegime(actor *entity.Usuario, empresaID int64, req *contract.TransicaoRequest) (*contract.TransicaoResponse, apierror.ErrorResponse)
}

type DefaultEmpresaRoute struct {
	EmpresaService   EmpresaService
	TransicaoService TransicaoService
}

func NewEmpresaDefault(empresaService EmpresaService, transicaoService TransicaoService) *DefaultEmpresaRoute {
	return &DefaultEmpresaRoute{
		EmpresaService:   empresaService,
		TransicaoService: transicaoService,
	}
}

func (e *DefaultEmpresaRoute) GetEmpresas(c echo.Context) error {
	empresas, apierr := e.EmpresaService.GetEmpresas()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"empresas": empresas}
	return c.JSON(http.StatusOK, &resp)
}

func (e *DefaultEmpresaRoute) GetEmpresa(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	empresa, apierr := e.EmpresaService.GetEmpresaByID(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, empresa)
}

func (e *DefaultEmpresaRoute) CreateEmpresa(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateEmpresaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	empresa, apierr := e.EmpresaService.CreateEmpresa(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, empresa)
}

func (e *DefaultEmpresaRoute) DeactivateEmpresa(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	if apierr := e.EmpresaService.DeactivateEmpresa(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (e *DefaultEmpresaRoute) GetVinculacoes(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	vinculacoes, apierr := e.EmpresaService.GetVinculacoes(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"vinculacoes": vinculacoes}
	return c.JSON(http.StatusOK, &resp)
}

// TransitionRegime switches the company's tax regime.
func (e *DefaultEmpresaRoute) TransitionRegime(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.TransicaoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := e.TransicaoService.TransitionRegime(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (e *DefaultEmpresaRoute) GetTributacoes(c echo.Context) error {
	tributacoes, apierr := e.EmpresaService.GetTributacoes()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"tributacoes": tributacoes}
	return c.JSON(http.StatusOK, &resp)
}

func (e *DefaultEmpresaRoute) GetSetores(c echo.Context) error {
	setores, apierr := e.EmpresaService.GetSetores()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"setores": setores}
	return c.JSON(http.StatusOK, &resp)
}
