package contract

type LoginRequest struct {
	Login string `json:"login" validate:"required,min=2,max=80"`
	Senha string `json:"senha" validate:"required,min=4,max=64"`
}

type LoginResponse struct {
	Token   string           `json:"token"`
	Usuario *UsuarioResponse `json:"usuario"`
}

type CreateUsuarioRequest struct {
	Nome    string `json:"nome" validate:"required,min=2,max=120"`
	Login   string `json:"login" validate:"required,min=2,max=80"`
	Senha   string `json:"senha" validate:"required,min=4,max=64"`
	Tipo    string `json:"tipo" validate:"required,oneof=admin gerente supervisor normal"`
	SetorID *int64 `json:"setor_id" validate:"omitempty,gt=0"`
}

type UsuarioResponse struct {
	ID        int64  `json:"id"`
	Nome      string `json:"nome"`
	Login     string `json:"login"`
	Tipo      string `json:"tipo"`
	Setor     string `json:"setor,omitempty"`
	SetorID   *int64 `json:"setor_id"`
	Ativo     bool   `json:"ativo"`
	CreatedAt string `json:"created_at"`
}
