package middleware

import (
	"net/http"

	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type UsuarioRepository interface {
	FindActiveByID(id int64) (*entity.Usuario, error)
}

type AuthMiddlewareConfig struct {
	UsuarioRepo UsuarioRepository
}

// NewAuthMiddleware validates the bearer token and loads the acting user
// into the request context. Deactivated accounts are cut off here even when
// their token is still unexpired.
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenData, err := utils.ParseTokenDataCtx(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthError)
			}

			usuario, err := cfg.UsuarioRepo.FindActiveByID(tokenData.UserID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
			}

			if usuario == nil {
				return c.JSON(http.StatusForbidden, apierror.InactiveAccountError)
			}

			c.Set("user", usuario)
			return next(c)
		}
	}
}
