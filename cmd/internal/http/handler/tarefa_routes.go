package handler

import (
	"net/http"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type TarefaService interface {
	CreateTarefa(actor *entity.Usuario, req *contract.CreateTarefaRequest) (*contract.TarefaResponse, apierror.ErrorResponse)
	GetTarefas(actor *entity.Usuario) ([]*contract.TarefaResponse, apierror.ErrorResponse)
	AddCatalogo(actor *entity.Usuario, req *contract.CatalogoRequest) apierror.ErrorResponse
	VincularTarefa(actor *entity.Usuario, req *contract.VincularRequest) (*contract.VincularResponse, apierror.ErrorResponse)
}

type DefaultTarefaRoute struct {
	TarefaService TarefaService
}

func NewTarefaDefault(tarefaService TarefaService) *DefaultTarefaRoute {
	return &DefaultTarefaRoute{TarefaService: tarefaService}
}

func (t *DefaultTarefaRoute) GetTarefas(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	tarefas, apierr := t.TarefaService.GetTarefas(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"tarefas": tarefas}
	return c.JSON(http.StatusOK, &resp)
}

func (t *DefaultTarefaRoute) CreateTarefa(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateTarefaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	tarefa, apierr := t.TarefaService.CreateTarefa(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, tarefa)
}

func (t *DefaultTarefaRoute) AddCatalogo(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CatalogoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	if apierr := t.TarefaService.AddCatalogo(user, &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusCreated)
}

func (t *DefaultTarefaRoute) VincularTarefa(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.VincularRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := t.TarefaService.VincularTarefa(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
