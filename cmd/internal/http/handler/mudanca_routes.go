package handler

import (
	"net/http"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type MudancaService interface {
	GetMudancasAbertas(actor *entity.Usuario) ([]*contract.MudancaResponse, apierror.ErrorResponse)
	GetMudancaTarefas(actor *entity.Usuario, mudancaID int64) ([]*contract.MudancaTarefaResponse, apierror.ErrorResponse)
	AtribuirTarefas(actor *entity.Usuario, mudancaID int64, req *contract.AtribuirRequest) (*contract.RevisaoResponse, apierror.ErrorResponse)
	DesativarTarefas(actor *entity.Usuario, mudancaID int64, req *contract.DesativarRequest) (*contract.RevisaoResponse, apierror.ErrorResponse)
	ConcluirMudanca(actor *entity.Usuario, mudancaID int64, req *contract.RevisaoRequest) (*contract.MudancaResponse, apierror.ErrorResponse)
	CancelarMudanca(actor *entity.Usuario, mudancaID int64, req *contract.RevisaoRequest) (*contract.MudancaResponse, apierror.ErrorResponse)
}

type DefaultMudancaRoute struct {
	MudancaService MudancaService
}

func NewMudancaDefault(mudancaService MudancaService) *DefaultMudancaRoute {
	return &DefaultMudancaRoute{MudancaService: mudancaService}
}

func (m *DefaultMudancaRoute) GetMudancas(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	mudancas, apierr := m.MudancaService.GetMudancasAbertas(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"mudancas": mudancas}
	return c.JSON(http.StatusOK, &resp)
}

func (m *DefaultMudancaRoute) GetMudancaTarefas(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	tarefas, apierr := m.MudancaService.GetMudancaTarefas(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"tarefas": tarefas}
	return c.JSON(http.StatusOK, &resp)
}

func (m *DefaultMudancaRoute) AtribuirTarefas(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.AtribuirRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := m.MudancaService.AtribuirTarefas(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (m *DefaultMudancaRoute) DesativarTarefas(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.DesativarRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := m.MudancaService.DesativarTarefas(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (m *DefaultMudancaRoute) ConcluirMudanca(c echo.Context) error {
	return m.closeMudanca(c, m.MudancaService.ConcluirMudanca)
}

func (m *DefaultMudancaRoute) CancelarMudanca(c echo.Context) error {
	return m.closeMudanca(c, m.MudancaService.CancelarMudanca)
}

func (m *DefaultMudancaRoute) closeMudanca(
	c echo.Context,
	action func(*entity.Usuario, int64, *contract.RevisaoRequest) (*contract.MudancaResponse, apierror.ErrorResponse),
) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.RevisaoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := action(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
