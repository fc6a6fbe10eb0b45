package handler

import (
	"net/http"
	"strconv"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/domain/sqlite/repository"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type PeriodoService interface {
	GerarPeriodos(actor *entity.Usuario, req *contract.GerarPeriodosRequest) (*contract.GerarPeriodosResponse, apierror.ErrorResponse)
	GetPeriodos(actor *entity.Usuario, filter repository.PeriodoFilter) ([]*contract.PeriodoResponse, apierror.ErrorResponse)
	IniciarPeriodo(actor *entity.Usuario, periodoID int64) (*contract.PeriodoResponse, apierror.ErrorResponse)
	ConcluirPeriodo(actor *entity.Usuario, periodoID int64) (*contract.PeriodoResponse, apierror.ErrorResponse)
	RetificarPeriodo(actor *entity.Usuario, periodoID int64, req *contract.RetificarRequest) (*contract.PeriodoResponse, apierror.ErrorResponse)
	ReabrirPeriodo(actor *entity.Usuario, periodoID int64) (*contract.PeriodoResponse, apierror.ErrorResponse)
	GetResumo(actor *entity.Usuario) (*contract.ResumoResponse, apierror.ErrorResponse)
}

type DefaultPeriodoRoute struct {
	PeriodoService PeriodoService
}

func NewPeriodoDefault(periodoService PeriodoService) *DefaultPeriodoRoute {
	return &DefaultPeriodoRoute{PeriodoService: periodoService}
}

func (p *DefaultPeriodoRoute) GerarPeriodos(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.GerarPeriodosRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := p.PeriodoService.GerarPeriodos(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (p *DefaultPeriodoRoute) GetPeriodos(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	filter, err := parsePeriodoFilter(c)
	if err != nil {
		return c.JSON(err.Code(), err)
	}

	periodos, apierr := p.PeriodoService.GetPeriodos(user, filter)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"periodos": periodos}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultPeriodoRoute) IniciarPeriodo(c echo.Context) error {
	return p.lifecycle(c, p.PeriodoService.IniciarPeriodo)
}

func (p *DefaultPeriodoRoute) ConcluirPeriodo(c echo.Context) error {
	return p.lifecycle(c, p.PeriodoService.ConcluirPeriodo)
}

func (p *DefaultPeriodoRoute) ReabrirPeriodo(c echo.Context) error {
	return p.lifecycle(c, p.PeriodoService.ReabrirPeriodo)
}

func (p *DefaultPeriodoRoute) RetificarPeriodo(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.RetificarRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := p.PeriodoService.RetificarPeriodo(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (p *DefaultPeriodoRoute) GetResumo(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	resumo, apierr := p.PeriodoService.GetResumo(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resumo)
}

func (p *DefaultPeriodoRoute) lifecycle(
	c echo.Context,
	action func(*entity.Usuario, int64) (*contract.PeriodoResponse, apierror.ErrorResponse),
) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	resp, apierr := action(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func parsePeriodoFilter(c echo.Context) (repository.PeriodoFilter, apierror.ErrorResponse) {
	filter := repository.PeriodoFilter{
		PeriodoLabel: c.QueryParam("periodo"),
	}

	params := map[string]*int64{
		"empresa_id":     &filter.EmpresaID,
		"responsavel_id": &filter.ResponsavelID,
		"tarefa_id":      &filter.TarefaID,
	}

	for name, dest := range params {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}

		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			return filter, apierror.NewInvalidParamTypeError(name, "int64")
		}
		*dest = value
	}
	return filter, nil
}
