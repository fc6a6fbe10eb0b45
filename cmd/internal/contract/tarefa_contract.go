package contract

type CreateTarefaRequest struct {
	Nome         string `json:"nome" validate:"required,min=2,max=200"`
	Tipo         string `json:"tipo" validate:"required,oneof=Mensal Trimestral Anual"`
	Descricao    string `json:"descricao" validate:"max=2000"`
	SetorID      *int64 `json:"setor_id" validate:"omitempty,gt=0"`
	TributacaoID *int64 `json:"tributacao_id" validate:"omitempty,gt=0"`
	TarefaComum  bool   `json:"tarefa_comum"`
}

type CatalogoRequest struct {
	TarefaID     int64 `json:"tarefa_id" validate:"required,gt=0"`
	TributacaoID int64 `json:"tributacao_id" validate:"required,gt=0"`
	Obrigatoria  bool  `json:"obrigatoria"`
	Ordem        int   `json:"ordem" validate:"min=0"`
}

type TarefaResponse struct {
	ID           int64  `json:"id"`
	Nome         string `json:"nome"`
	Tipo         string `json:"tipo"`
	Descricao    string `json:"descricao,omitempty"`
	Setor        string `json:"setor,omitempty"`
	SetorID      *int64 `json:"setor_id"`
	TributacaoID *int64 `json:"tributacao_id"`
	TarefaComum  bool   `json:"tarefa_comum"`
	CreatedAt    string `json:"created_at"`
}

// VincularRequest is the manual bulk-assignment flow: bind one task to one
// employee across many companies in a single call.
type VincularRequest struct {
	FuncionarioID int64   `json:"funcionario_id" validate:"required,gt=0"`
	TarefaID      int64   `json:"tarefa_id" validate:"required,gt=0"`
	EmpresasIDs   []int64 `json:"empresas_ids" validate:"required,min=1,max=500,nodupes,dive,gt=0"`
}

type VincularResponse struct {
	Criados    int      `json:"criados"`
	Duplicados int      `json:"duplicados"`
	Erros      []string `json:"erros"`
}
