package contract

type GerarPeriodosRequest struct {
	Ano int `json:"ano" validate:"required,min=2000,max=2100"`
	Mes int `json:"mes" validate:"required,min=1,max=12"`
}

type GerarPeriodosResponse struct {
	Criados    int `json:"criados"`
	Existentes int `json:"existentes"`
}

type RetificarRequest struct {
	Motivo string `json:"motivo" validate:"required,min=2,max=500"`
}

type PeriodoResponse struct {
	ID                   int64  `json:"id"`
	RelacionamentoID     int64  `json:"relacionamento_id"`
	TarefaID             int64  `json:"tarefa_id"`
	Tarefa               string `json:"tarefa"`
	Tipo                 string `json:"tipo"`
	EmpresaID            int64  `json:"empresa_id"`
	Empresa              string `json:"empresa,omitempty"`
	ResponsavelID        *int64 `json:"responsavel_id"`
	PeriodoLabel         string `json:"periodo_label"`
	Inicio               string `json:"inicio"`
	Fim                  string `json:"fim"`
	Status               string `json:"status"`
	DataConclusao        string `json:"data_conclusao,omitempty"`
	DataRetificacao      string `json:"data_retificacao,omitempty"`
	ContadorRetificacoes int    `json:"contador_retificacoes"`
	TarefaAntiga         bool   `json:"tarefa_antiga"`
	MotivoDesativacao    string `json:"motivo_desativacao,omitempty"`
}

// ResumoResponse is the dashboard header: open review tickets plus the
// instance workload of the current period.
type ResumoResponse struct {
	MudancasAbertas     int64 `json:"mudancas_abertas"`
	PeriodosPendentes   int64 `json:"periodos_pendentes"`
	PeriodosFazendo     int64 `json:"periodos_fazendo"`
	PeriodosConcluidos  int64 `json:"periodos_concluidos"`
	PeriodosRetificados int64 `json:"periodos_retificados"`
}
