package contract

type TransicaoRequest struct {
	TributacaoID int64  `json:"tributacao_id" validate:"required,gt=0"`
	Motivo       string `json:"motivo" validate:"max=500"`
}

type TransicaoResponse struct {
	Mudanca            *MudancaResponse `json:"mudanca"`
	TarefasDesativadas int              `json:"tarefas_desativadas"`
	TarefasPreservadas int              `json:"tarefas_preservadas"`
	TarefasReativadas  int              `json:"tarefas_reativadas"`
	TarefasCriadas     int              `json:"tarefas_criadas"`
}

type MudancaResponse struct {
	ID                 int64  `json:"id"`
	Referencia         string `json:"referencia"`
	EmpresaID          int64  `json:"empresa_id"`
	Empresa            string `json:"empresa,omitempty"`
	TributacaoAnterior string `json:"tributacao_anterior,omitempty"`
	TributacaoNova     string `json:"tributacao_nova"`
	DataMudanca        string `json:"data_mudanca"`
	Motivo             string `json:"motivo"`
	Status             string `json:"status"`
	SemResponsavel     int64  `json:"sem_responsavel"`
	CreatedAt          string `json:"created_at"`
}

// MudancaTarefaResponse is one unassigned slot awaiting review on a ticket.
type MudancaTarefaResponse struct {
	RelacionamentoID int64  `json:"relacionamento_id"`
	TarefaID         int64  `json:"tarefa_id"`
	Nome             string `json:"nome"`
	Tipo             string `json:"tipo"`
	Setor            string `json:"setor,omitempty"`
	TarefaComum      bool   `json:"tarefa_comum"`
}

type Atribuicao struct {
	RelacionamentoID int64 `json:"relacionamento_id" validate:"required,gt=0"`
	ResponsavelID    int64 `json:"responsavel_id" validate:"required,gt=0"`
}

type AtribuirRequest struct {
	Atribuicoes []Atribuicao `json:"atribuicoes" validate:"required,min=1,max=200,dive"`
}

type DesativarRequest struct {
	RelacionamentosIDs []int64 `json:"relacionamentos_ids" validate:"required,min=1,max=200,nodupes,dive,gt=0"`
}

type RevisaoRequest struct {
	Observacoes string `json:"observacoes" validate:"max=1000"`
}

type RevisaoResponse struct {
	Atualizados      int      `json:"atualizados"`
	Desativados      int      `json:"desativados"`
	Erros            []string `json:"erros"`
	SemResponsavel   int64    `json:"sem_responsavel"`
	MudancaConcluida bool     `json:"mudanca_concluida"`
}
