package handler

import (
	"net/http"
	"strconv"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type UsuarioService interface {
	Login(req *contract.LoginRequest) (*contract.LoginResponse, apierror.ErrorResponse)
	CreateUsuario(actor *entity.Usuario, req *contract.CreateUsuarioRequest) (*contract.UsuarioResponse, apierror.ErrorResponse)
	GetUsuarios(actor *entity.Usuario) ([]*contract.UsuarioResponse, apierror.ErrorResponse)
	DeactivateUsuario(actor *entity.Usuario, usuarioID int64) apierror.ErrorResponse
}

type DefaultUsuarioRoute struct {
	UsuarioService UsuarioService
}

func NewUsuarioDefault(usuarioService UsuarioService) *DefaultUsuarioRoute {
	return &DefaultUsuarioRoute{UsuarioService: usuarioService}
}

func (u *DefaultUsuarioRoute) Login(c echo.Context) error {
	var req contract.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := u.UsuarioService.Login(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUsuarioRoute) CreateUsuario(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateUsuarioRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := u.UsuarioService.CreateUsuario(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (u *DefaultUsuarioRoute) GetUsuarios(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	usuarios, apierr := u.UsuarioService.GetUsuarios(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"usuarios": usuarios}
	return c.JSON(http.StatusOK, &resp)
}

func (u *DefaultUsuarioRoute) DeactivateUsuario(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	if apierr := u.UsuarioService.DeactivateUsuario(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func parseIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
