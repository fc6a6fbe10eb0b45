package service

import (
	"testing"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/domain/sqlite/repository"

	"gorm.io/gorm"
)

func newPeriodoService(t *testing.T) (*DefaultPeriodoService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewPeriodoService(db, testClock(), testPolicy(), newTestValidator())
	return svc, db
}

func TestGerarPeriodosIdempotente(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)

	mensal := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E201", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, mensal.ID, idPtr(analista.ID))

	resp, apierr := svc.GerarPeriodos(admin, &contract.GerarPeriodosRequest{Ano: 2025, Mes: 9})
	if apierr != nil {
		t.Fatalf("GerarPeriodos failed: %+v", apierr)
	}
	if resp.Criados != 1 || resp.Existentes != 0 {
		t.Errorf("first run: criados=%d existentes=%d, want 1/0", resp.Criados, resp.Existentes)
	}

	var instance entity.Periodo
	if err := db.Where("relacionamento_tarefa_id = ?", rel.ID).First(&instance).Error; err != nil {
		t.Fatalf("instance not found: %v", err)
	}
	if instance.PeriodoLabel != "2025-09" || instance.Status != entity.InstancePendente {
		t.Errorf("instance = %s/%s, want 2025-09/pendente", instance.PeriodoLabel, instance.Status)
	}

	// Complete it, then re-run: the delivery must survive.
	if _, apierr := svc.ConcluirPeriodo(analista, instance.ID); apierr != nil {
		t.Fatalf("ConcluirPeriodo failed: %+v", apierr)
	}

	resp, apierr = svc.GerarPeriodos(admin, &contract.GerarPeriodosRequest{Ano: 2025, Mes: 9})
	if apierr != nil {
		t.Fatalf("second run failed: %+v", apierr)
	}
	if resp.Criados != 0 || resp.Existentes != 1 {
		t.Errorf("second run: criados=%d existentes=%d, want 0/1", resp.Criados, resp.Existentes)
	}

	kept := reloadPeriodo(t, db, instance.ID)
	if kept.Status != entity.InstanceConcluida {
		t.Errorf("completed instance was touched by regeneration: %s", kept.Status)
	}
}

func TestGerarPeriodosTrimestral(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Lucro Presumido")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	trimestral := seedTarefa(t, db, "Apuração Trimestral", entity.CycleTrimestral, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E202", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, trimestral.ID, nil)

	// Mid-quarter months materialize nothing.
	for _, mes := range []int{7, 8} {
		resp, apierr := svc.GerarPeriodos(admin, &contract.GerarPeriodosRequest{Ano: 2025, Mes: mes})
		if apierr != nil {
			t.Fatalf("GerarPeriodos(%d) failed: %+v", mes, apierr)
		}
		if resp.Criados != 0 {
			t.Errorf("month %d: criados = %d, want 0", mes, resp.Criados)
		}
	}

	resp, apierr := svc.GerarPeriodos(admin, &contract.GerarPeriodosRequest{Ano: 2025, Mes: 9})
	if apierr != nil {
		t.Fatalf("GerarPeriodos(9) failed: %+v", apierr)
	}
	if resp.Criados != 1 {
		t.Fatalf("closing month: criados = %d, want 1", resp.Criados)
	}

	var instance entity.Periodo
	db.Where("relacionamento_tarefa_id = ?", rel.ID).First(&instance)
	if instance.PeriodoLabel != "2025-T3" {
		t.Errorf("label = %s, want 2025-T3", instance.PeriodoLabel)
	}
}

func TestGerarPeriodosAnual(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Lucro Real")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	anual := seedTarefa(t, db, "ECF", entity.CycleAnual, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E203", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, anual.ID, nil)

	resp, apierr := svc.GerarPeriodos(admin, &contract.GerarPeriodosRequest{Ano: 2025, Mes: 1})
	if apierr != nil {
		t.Fatalf("GerarPeriodos failed: %+v", apierr)
	}
	if resp.Criados != 1 {
		t.Fatalf("criados = %d, want 1", resp.Criados)
	}

	// Any later month of the same year only reports the existing instance.
	resp, apierr = svc.GerarPeriodos(admin, &contract.GerarPeriodosRequest{Ano: 2025, Mes: 6})
	if apierr != nil {
		t.Fatalf("GerarPeriodos failed: %+v", apierr)
	}
	if resp.Criados != 0 || resp.Existentes != 1 {
		t.Errorf("criados=%d existentes=%d, want 0/1", resp.Criados, resp.Existentes)
	}

	var count int64
	db.Model(&entity.Periodo{}).Where("relacionamento_tarefa_id = ?", rel.ID).Count(&count)
	if count != 1 {
		t.Errorf("annual instances = %d, want 1 per year", count)
	}
}

func TestConcluirPeriodoLifecycle(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E204", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, tarefa.ID, idPtr(analista.ID))
	instance := seedPeriodo(t, db, rel.ID, "2025-09", entity.InstancePendente)

	started, apierr := svc.IniciarPeriodo(analista, instance.ID)
	if apierr != nil {
		t.Fatalf("IniciarPeriodo failed: %+v", apierr)
	}
	if started.Status != string(entity.InstanceFazendo) {
		t.Errorf("status = %s, want fazendo", started.Status)
	}

	if _, apierr := svc.IniciarPeriodo(analista, instance.ID); apierr == nil || apierr.Code() != 422 {
		t.Errorf("starting twice should fail with 422, got %+v", apierr)
	}

	done, apierr := svc.ConcluirPeriodo(analista, instance.ID)
	if apierr != nil {
		t.Fatalf("ConcluirPeriodo failed: %+v", apierr)
	}
	if done.Status != string(entity.InstanceConcluida) || done.DataConclusao == "" {
		t.Errorf("delivery not recorded: status=%s data=%q", done.Status, done.DataConclusao)
	}
}

func TestConcluirTwiceIsImplicitRectification(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E205", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, tarefa.ID, idPtr(analista.ID))
	instance := seedPeriodo(t, db, rel.ID, "2025-09", entity.InstanceConcluida)

	resp, apierr := svc.ConcluirPeriodo(analista, instance.ID)
	if apierr != nil {
		t.Fatalf("ConcluirPeriodo failed: %+v", apierr)
	}

	if resp.Status != string(entity.InstanceRetificada) {
		t.Errorf("status = %s, want retificada", resp.Status)
	}
	if resp.ContadorRetificacoes != 1 {
		t.Errorf("contador = %d, want 1", resp.ContadorRetificacoes)
	}

	// Counter always equals the audit rows.
	var audit int64
	db.Model(&entity.Retificacao{}).Where("periodo_id = ?", instance.ID).Count(&audit)
	if audit != 1 {
		t.Errorf("audit rows = %d, want 1", audit)
	}

	// A second overload keeps them in lockstep.
	resp, apierr = svc.ConcluirPeriodo(analista, instance.ID)
	if apierr != nil {
		t.Fatalf("second overload failed: %+v", apierr)
	}
	if resp.ContadorRetificacoes != 2 {
		t.Errorf("contador = %d, want 2", resp.ContadorRetificacoes)
	}
	db.Model(&entity.Retificacao{}).Where("periodo_id = ?", instance.ID).Count(&audit)
	if audit != 2 {
		t.Errorf("audit rows = %d, want 2", audit)
	}
}

func TestRetificarPeriodo(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E206", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, tarefa.ID, idPtr(analista.ID))

	pendente := seedPeriodo(t, db, rel.ID, "2025-08", entity.InstancePendente)
	entregue := seedPeriodo(t, db, rel.ID, "2025-09", entity.InstanceConcluida)

	if _, apierr := svc.RetificarPeriodo(analista, pendente.ID, &contract.RetificarRequest{Motivo: "valor errado"}); apierr == nil || apierr.Code() != 422 {
		t.Errorf("rectifying an undelivered instance should fail with 422, got %+v", apierr)
	}

	if _, apierr := svc.RetificarPeriodo(analista, entregue.ID, &contract.RetificarRequest{}); apierr == nil || apierr.Code() != 400 {
		t.Errorf("missing motivo should fail with 400, got %+v", apierr)
	}

	resp, apierr := svc.RetificarPeriodo(analista, entregue.ID, &contract.RetificarRequest{Motivo: "valor errado"})
	if apierr != nil {
		t.Fatalf("RetificarPeriodo failed: %+v", apierr)
	}
	if resp.Status != string(entity.InstanceRetificada) || resp.ContadorRetificacoes != 1 {
		t.Errorf("status=%s contador=%d, want retificada/1", resp.Status, resp.ContadorRetificacoes)
	}

	var audit entity.Retificacao
	if err := db.Where("periodo_id = ?", entregue.ID).First(&audit).Error; err != nil {
		t.Fatalf("audit row not found: %v", err)
	}
	if audit.Motivo != "valor errado" || audit.UsuarioID != analista.ID {
		t.Errorf("audit = %q by %d, want 'valor errado' by %d", audit.Motivo, audit.UsuarioID, analista.ID)
	}
}

func TestReabrirPeriodo(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E207", idPtr(trib.ID))
	rel := seedRelacionamento(t, db, empresa.ID, tarefa.ID, idPtr(analista.ID))

	retificada := seedPeriodo(t, db, rel.ID, "2025-08", entity.InstanceRetificada)
	concluida := seedPeriodo(t, db, rel.ID, "2025-09", entity.InstanceConcluida)

	resp, apierr := svc.ReabrirPeriodo(analista, retificada.ID)
	if apierr != nil {
		t.Fatalf("ReabrirPeriodo failed: %+v", apierr)
	}
	if resp.Status != string(entity.InstancePendente) {
		t.Errorf("status = %s, want pendente", resp.Status)
	}

	if _, apierr := svc.ReabrirPeriodo(analista, concluida.ID); apierr == nil || apierr.Code() != 422 {
		t.Errorf("reopening a merely completed instance should fail with 422, got %+v", apierr)
	}
}

func TestGetPeriodosVisibility(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Lucro Presumido")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	outro := seedUsuario(t, db, "bob", entity.UserNormal, nil)

	mensal := seedTarefa(t, db, "PIS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	trimestral := seedTarefa(t, db, "Apuração", entity.CycleTrimestral, idPtr(trib.ID), nil, false)
	anual := seedTarefa(t, db, "ECF", entity.CycleAnual, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E208", idPtr(trib.ID))

	relMensal := seedRelacionamento(t, db, empresa.ID, mensal.ID, idPtr(analista.ID))
	relTrimestral := seedRelacionamento(t, db, empresa.ID, trimestral.ID, idPtr(analista.ID))
	relAnual := seedRelacionamento(t, db, empresa.ID, anual.ID, idPtr(outro.ID))

	seedPeriodo(t, db, relMensal.ID, "2025-08", entity.InstanceConcluida)
	seedPeriodo(t, db, relMensal.ID, "2025-09", entity.InstancePendente)
	seedPeriodo(t, db, relTrimestral.ID, "2025-T3", entity.InstancePendente)
	seedPeriodo(t, db, relAnual.ID, "2025-Anual", entity.InstancePendente)

	// Closing month of the quarter: monthly 09 + quarterly T3 + annual.
	setembro, apierr := svc.GetPeriodos(admin, repository.PeriodoFilter{PeriodoLabel: "2025-09"})
	if apierr != nil {
		t.Fatalf("GetPeriodos failed: %+v", apierr)
	}
	if len(setembro) != 3 {
		t.Fatalf("september listing = %d instances, want 3", len(setembro))
	}

	// Mid-quarter month hides the quarterly instance.
	agosto, apierr := svc.GetPeriodos(admin, repository.PeriodoFilter{PeriodoLabel: "2025-08"})
	if apierr != nil {
		t.Fatalf("GetPeriodos failed: %+v", apierr)
	}
	if len(agosto) != 2 {
		t.Fatalf("august listing = %d instances, want 2 (monthly + annual)", len(agosto))
	}
	for _, p := range agosto {
		if p.Tipo == string(entity.CycleTrimestral) {
			t.Error("quarterly instance leaked into a mid-quarter listing")
		}
	}

	// Normal users are pinned to their own assignments.
	proprios, apierr := svc.GetPeriodos(analista, repository.PeriodoFilter{PeriodoLabel: "2025-09"})
	if apierr != nil {
		t.Fatalf("GetPeriodos failed: %+v", apierr)
	}
	for _, p := range proprios {
		if p.ResponsavelID == nil || *p.ResponsavelID != analista.ID {
			t.Errorf("normal user sees someone else's instance: %+v", p)
		}
	}
	if len(proprios) != 2 {
		t.Errorf("own listing = %d, want 2", len(proprios))
	}

	if _, apierr := svc.GetPeriodos(admin, repository.PeriodoFilter{PeriodoLabel: "2025-13"}); apierr == nil || apierr.Code() != 400 {
		t.Errorf("invalid label should fail with 400, got %+v", apierr)
	}
}

func TestGetResumo(t *testing.T) {
	svc, db := newPeriodoService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E209", idPtr(trib.ID))

	rel := seedRelacionamento(t, db, empresa.ID, tarefa.ID, idPtr(analista.ID))
	seedPeriodo(t, db, rel.ID, "2025-08", entity.InstanceConcluida)
	seedPeriodo(t, db, rel.ID, "2025-09", entity.InstancePendente)
	seedMudanca(t, db, empresa.ID, admin.ID, trib.ID)

	resumo, apierr := svc.GetResumo(admin)
	if apierr != nil {
		t.Fatalf("GetResumo failed: %+v", apierr)
	}

	if resumo.MudancasAbertas != 1 {
		t.Errorf("mudancas abertas = %d, want 1", resumo.MudancasAbertas)
	}
	if resumo.PeriodosPendentes != 1 || resumo.PeriodosConcluidos != 1 {
		t.Errorf("pendentes=%d concluidos=%d, want 1/1", resumo.PeriodosPendentes, resumo.PeriodosConcluidos)
	}
}
