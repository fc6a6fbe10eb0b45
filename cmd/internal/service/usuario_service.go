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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type DefaultUsuarioService struct {
	DB       *gorm.DB
	Policy   *policy.AcessoPolicy
	Validate *validator.Validate
}

func NewUsuarioService(db *gorm.DB, pol *policy.AcessoPolicy, validate *validator.Validate) *DefaultUsuarioService {
	return &DefaultUsuarioService{
		DB:       db,
		Policy:   pol,
		Validate: validate,
	}
}

// Login checks the credentials and issues a signed session token.
// Deactivated accounts keep their history but can no longer sign in.
func (s *DefaultUsuarioService) Login(req *contract.LoginRequest) (*contract.LoginResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	usuarios := repository.NewUsuarioRepository(s.DB)
	usuario, err := usuarios.FindByLogin(req.Login)
	if err != nil {
		log.Errorf("failed to fetch usuario: %v", err)
		return nil, apierror.InternalServerError
	}

	if usuario == nil {
		return nil, apierror.CredentialsError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.SenhaHash), []byte(req.Senha)); err != nil {
		return nil, apierror.CredentialsError
	}

	if !usuario.Ativo {
		return nil, apierror.InactiveAccountError
	}

	token, err := utils.IssueToken(usuario.ID, usuario.Login)
	if err != nil {
		log.Errorf("failed to issue token: %v", err)
		return nil, apierror.InternalServerError
	}

	return &contract.LoginResponse{
		Token:   token,
		Usuario: toUsuarioResponse(usuario),
	}, nil
}

func (s *DefaultUsuarioService) CreateUsuario(actor *entity.Usuario, req *contract.CreateUsuarioRequest) (*contract.UsuarioResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	usuarios := repository.NewUsuarioRepository(s.DB)
	catalogos := repository.NewCatalogoRepository(s.DB)

	exists, err := usuarios.ExistsByLogin(req.Login)
	if err != nil {
		log.Errorf("failed to check login: %v", err)
		return nil, apierror.InternalServerError
	}

	if exists {
		return nil, apierror.NewConflictError("login '%s' is already taken", req.Login)
	}

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

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Senha), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("failed to hash password: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	usuario := &entity.Usuario{
		Nome:      req.Nome,
		Login:     req.Login,
		SenhaHash: string(hash),
		Tipo:      entity.UserType(req.Tipo),
		SetorID:   req.SetorID,
		Ativo:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := usuarios.Save(usuario); err != nil {
		log.Errorf("failed to create usuario: %v", err)
		return nil, apierror.InternalServerError
	}
	return toUsuarioResponse(usuario), nil
}

// GetUsuarios lists active staff; gerentes only see their own sector.
func (s *DefaultUsuarioService) GetUsuarios(actor *entity.Usuario) ([]*contract.UsuarioResponse, apierror.ErrorResponse) {
	usuarios := repository.NewUsuarioRepository(s.DB)

	ativos, err := usuarios.FindAtivos(s.Policy.SectorScope(actor))
	if err != nil {
		log.Errorf("failed to fetch usuarios: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.UsuarioResponse, len(ativos))
	for i, usuario := range ativos {
		resp[i] = toUsuarioResponse(usuario)
	}
	return resp, nil
}

// DeactivateUsuario disables an account without erasing its history.
func (s *DefaultUsuarioService) DeactivateUsuario(actor *entity.Usuario, usuarioID int64) apierror.ErrorResponse {
	if apierr := s.Policy.CanManageCadastros(actor); apierr != nil {
		return apierr
	}

	if usuarioID == actor.ID {
		return apierror.NewBusinessRuleError("you cannot deactivate your own account")
	}

	usuarios := repository.NewUsuarioRepository(s.DB)
	usuario, err := usuarios.FindByID(usuarioID)
	if err != nil {
		log.Errorf("failed to fetch usuario: %v", err)
		return apierror.InternalServerError
	}

	if usuario == nil {
		return apierror.NewNotFoundError("usuario", usuarioID)
	}

	usuario.Ativo = false
	usuario.UpdatedAt = utils.NowUTC()
	if err := usuarios.Save(usuario); err != nil {
		log.Errorf("failed to deactivate usuario: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func toUsuarioResponse(usuario *entity.Usuario) *contract.UsuarioResponse {
	resp := &contract.UsuarioResponse{
		ID:        usuario.ID,
		Nome:      usuario.Nome,
		Login:     usuario.Login,
		Tipo:      string(usuario.Tipo),
		SetorID:   usuario.SetorID,
		Ativo:     usuario.Ativo,
		CreatedAt: utils.FormatEpoch(usuario.CreatedAt),
	}
	if usuario.Setor != nil {
		resp.Setor = usuario.Setor.Nome
	}
	return resp
}
