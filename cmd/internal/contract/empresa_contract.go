package contract

type CreateEmpresaRequest struct {
	Codigo string `json:"codigo" validate:"required,min=1,max=20"`
	Nome   string `json:"nome" validate:"required,min=2,max=200"`
}

type EmpresaResponse struct {
	ID           int64  `json:"id"`
	Codigo       string `json:"codigo"`
	Nome         string `json:"nome"`
	TributacaoID *int64 `json:"tributacao_id"`
	Tributacao   string `json:"tributacao,omitempty"`
	Ativo        bool   `json:"ativo"`
	CreatedAt    string `json:"created_at"`
}

// VinculacaoResponse is one entry of a company's regime history.
type VinculacaoResponse struct {
	ID         int64  `json:"id"`
	Tributacao string `json:"tributacao"`
	DataInicio string `json:"data_inicio"`
	DataFim    string `json:"data_fim,omitempty"`
	Ativo      bool   `json:"ativo"`
}

type TributacaoResponse struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

type SetorResponse struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}
