package utils

import (
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func GetUserFromContext(c echo.Context) (*entity.Usuario, apierror.ErrorResponse) {
	val := c.Get("user")
	if val == nil {
		log.Errorf("no user found in context for %s", c.Path())
		return nil, apierror.InternalServerError
	}

	user, ok := val.(*entity.Usuario)
	if !ok {
		log.Errorf("context user has unexpected type %T", val)
		return nil, apierror.InternalServerError
	}
	return user, nil
}
