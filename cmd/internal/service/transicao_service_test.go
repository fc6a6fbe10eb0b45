package service

import (
	"testing"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

func newTransicaoService(t *testing.T) (*DefaultTransicaoService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewTransicaoService(db, testClock(), testPolicy(), newTestValidator())
	return svc, db
}

func TestTransitionRegimeFullSwap(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribA := seedTributacao(t, db, "Simples Nacional")
	tribB := seedTributacao(t, db, "Lucro Presumido")
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)

	tarefaA := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(tribA.ID), nil, false)
	comum := seedTarefa(t, db, "Folha", entity.CycleMensal, nil, nil, true)
	seedTarefa(t, db, "PIS/COFINS", entity.CycleMensal, idPtr(tribB.ID), nil, false)
	tarefaB2 := seedTarefa(t, db, "Balancete", entity.CycleMensal, nil, nil, false)
	if err := db.Create(&entity.TarefaTributacao{TarefaID: tarefaB2.ID, TributacaoID: tribB.ID, Ativo: true}).Error; err != nil {
		t.Fatalf("failed to seed catalog entry: %v", err)
	}

	empresa := seedEmpresa(t, db, "E001", idPtr(tribA.ID))
	relA := seedRelacionamento(t, db, empresa.ID, tarefaA.ID, idPtr(analista.ID))
	relComum := seedRelacionamento(t, db, empresa.ID, comum.ID, idPtr(analista.ID))

	resp, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID})
	if apierr != nil {
		t.Fatalf("TransitionRegime failed: %+v", apierr)
	}

	if resp.TarefasDesativadas != 1 {
		t.Errorf("desativadas = %d, want 1", resp.TarefasDesativadas)
	}
	if resp.TarefasCriadas != 2 {
		t.Errorf("criadas = %d, want 2", resp.TarefasCriadas)
	}
	if resp.Mudanca.Status != string(entity.TicketPendente) {
		t.Errorf("ticket status = %s, want pendente", resp.Mudanca.Status)
	}
	if resp.Mudanca.SemResponsavel != 2 {
		t.Errorf("sem_responsavel = %d, want 2", resp.Mudanca.SemResponsavel)
	}

	// Regime-specific slot is versioned off with its audit fields set.
	gone := reloadRelacionamento(t, db, relA.ID)
	if gone.VersaoAtual || gone.Status != entity.AssignmentInativa {
		t.Errorf("old slot not versioned off: versao_atual=%v status=%s", gone.VersaoAtual, gone.Status)
	}
	if gone.DataFim == nil || gone.MotivoDesativacao == nil {
		t.Error("versioned-off slot is missing DataFim or MotivoDesativacao")
	}

	// The common task keeps its assignee untouched.
	kept := reloadRelacionamento(t, db, relComum.ID)
	if !kept.VersaoAtual || kept.ResponsavelID == nil {
		t.Error("common task slot should survive the transition with its assignee")
	}

	// New regime slots exist unassigned.
	var novos []*entity.RelacionamentoTarefa
	db.Where("empresa_id = ? AND versao_atual = ? AND responsavel_id IS NULL", empresa.ID, true).Find(&novos)
	if len(novos) != 2 {
		t.Fatalf("unassigned new slots = %d, want 2", len(novos))
	}

	// Denormalized pointer and binding ledger moved together.
	var atualizada entity.Empresa
	db.First(&atualizada, empresa.ID)
	if atualizada.TributacaoID == nil || *atualizada.TributacaoID != tribB.ID {
		t.Errorf("empresa regime pointer = %v, want %d", atualizada.TributacaoID, tribB.ID)
	}

	var ativas []*entity.VinculacaoEmpresaTributacao
	db.Where("empresa_id = ? AND ativo = ?", empresa.ID, true).Find(&ativas)
	if len(ativas) != 1 || ativas[0].TributacaoID != tribB.ID {
		t.Fatalf("active bindings = %d (regime %v), want exactly one for the new regime", len(ativas), ativas)
	}

	var fechadas []*entity.VinculacaoEmpresaTributacao
	db.Where("empresa_id = ? AND ativo = ?", empresa.ID, false).Find(&fechadas)
	if len(fechadas) != 1 || fechadas[0].DataFim == nil {
		t.Error("previous binding should be closed with DataFim set")
	}
}

func TestTransitionRegimePreservesInFlightWork(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribA := seedTributacao(t, db, "Simples Nacional")
	tribB := seedTributacao(t, db, "Lucro Real")
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)

	emAndamento := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(tribA.ID), nil, false)
	entregue := seedTarefa(t, db, "DCTF", entity.CycleMensal, idPtr(tribA.ID), nil, false)
	empresa := seedEmpresa(t, db, "E002", idPtr(tribA.ID))

	relAndamento := seedRelacionamento(t, db, empresa.ID, emAndamento.ID, idPtr(analista.ID))
	relEntregue := seedRelacionamento(t, db, empresa.ID, entregue.ID, idPtr(analista.ID))

	// Current-month instances: one in flight, one already delivered.
	seedPeriodo(t, db, relAndamento.ID, "2025-09", entity.InstanceFazendo)
	seedPeriodo(t, db, relEntregue.ID, "2025-09", entity.InstanceConcluida)

	resp, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID})
	if apierr != nil {
		t.Fatalf("TransitionRegime failed: %+v", apierr)
	}

	if resp.TarefasPreservadas != 1 {
		t.Errorf("preservadas = %d, want 1", resp.TarefasPreservadas)
	}
	if resp.TarefasDesativadas != 1 {
		t.Errorf("desativadas = %d, want 1", resp.TarefasDesativadas)
	}

	preserved := reloadRelacionamento(t, db, relAndamento.ID)
	if !preserved.VersaoAtual || preserved.ResponsavelID == nil {
		t.Error("in-flight slot should keep its version and assignee")
	}

	delivered := reloadRelacionamento(t, db, relEntregue.ID)
	if delivered.VersaoAtual {
		t.Error("delivered slot should be versioned off")
	}
}

func TestTransitionRegimeReactivatesOldSlot(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribA := seedTributacao(t, db, "Simples Nacional")
	tribB := seedTributacao(t, db, "Lucro Presumido")
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)

	tarefaA := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(tribA.ID), nil, false)
	empresa := seedEmpresa(t, db, "E003", idPtr(tribA.ID))
	original := seedRelacionamento(t, db, empresa.ID, tarefaA.ID, idPtr(analista.ID))

	if _, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID}); apierr != nil {
		t.Fatalf("first transition failed: %+v", apierr)
	}

	// Settle the review ticket so a second transition is allowed.
	db.Model(&entity.MudancaTributacaoPendente{}).
		Where("empresa_id = ?", empresa.ID).
		Update("status", entity.TicketConcluida)

	resp, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribA.ID})
	if apierr != nil {
		t.Fatalf("second transition failed: %+v", apierr)
	}

	if resp.TarefasReativadas != 1 {
		t.Errorf("reativadas = %d, want 1", resp.TarefasReativadas)
	}
	if resp.TarefasCriadas != 0 {
		t.Errorf("criadas = %d, want 0 (slot must be reused, not duplicated)", resp.TarefasCriadas)
	}

	// The original row came back as the current version, unassigned.
	back := reloadRelacionamento(t, db, original.ID)
	if !back.VersaoAtual || back.Status != entity.AssignmentAtiva {
		t.Errorf("slot not reactivated: versao_atual=%v status=%s", back.VersaoAtual, back.Status)
	}
	if back.ResponsavelID != nil {
		t.Error("reactivated slot should come back unassigned")
	}
	if back.DataFim != nil || back.MotivoDesativacao != nil {
		t.Error("reactivated slot should have its closure fields cleared")
	}

	var count int64
	db.Model(&entity.RelacionamentoTarefa{}).
		Where("empresa_id = ? AND tarefa_id = ?", empresa.ID, tarefaA.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("slot rows = %d, want 1 (at most one per empresa+tarefa chain here)", count)
	}
}

func TestTransitionRegimeNoOp(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribA := seedTributacao(t, db, "Simples Nacional")
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	empresa := seedEmpresa(t, db, "E004", idPtr(tribA.ID))

	_, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribA.ID})
	if apierr == nil || apierr.Code() != 422 {
		t.Fatalf("same-regime transition should fail with 422, got %+v", apierr)
	}

	// Nothing changed: no ticket, single binding still open.
	var tickets int64
	db.Model(&entity.MudancaTributacaoPendente{}).Count(&tickets)
	if tickets != 0 {
		t.Errorf("tickets = %d, want 0", tickets)
	}

	var bindings int64
	db.Model(&entity.VinculacaoEmpresaTributacao{}).Where("empresa_id = ?", empresa.ID).Count(&bindings)
	if bindings != 1 {
		t.Errorf("bindings = %d, want 1", bindings)
	}
}

func TestTransitionRegimeOpenTicketConflict(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribA := seedTributacao(t, db, "Simples Nacional")
	tribB := seedTributacao(t, db, "Lucro Presumido")
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	empresa := seedEmpresa(t, db, "E005", idPtr(tribA.ID))

	if _, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID}); apierr != nil {
		t.Fatalf("first transition failed: %+v", apierr)
	}

	_, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribA.ID})
	if apierr == nil || apierr.Code() != 409 {
		t.Fatalf("transition with an open ticket should fail with 409, got %+v", apierr)
	}
}

func TestTransitionRegimePermissionsAndLookups(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribA := seedTributacao(t, db, "Simples Nacional")
	tribB := seedTributacao(t, db, "Lucro Presumido")
	normal := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	empresa := seedEmpresa(t, db, "E006", idPtr(tribA.ID))

	if _, apierr := svc.TransitionRegime(normal, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID}); apierr == nil || apierr.Code() != 403 {
		t.Errorf("normal user should get 403, got %+v", apierr)
	}

	if _, apierr := svc.TransitionRegime(supervisor, 9999, &contract.TransicaoRequest{TributacaoID: tribB.ID}); apierr == nil || apierr.Code() != 404 {
		t.Errorf("unknown empresa should get 404, got %+v", apierr)
	}

	if _, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: 9999}); apierr == nil || apierr.Code() != 404 {
		t.Errorf("unknown tributacao should get 404, got %+v", apierr)
	}

	db.Model(&entity.Empresa{}).Where("id = ?", empresa.ID).Update("ativo", false)
	if _, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID}); apierr == nil || apierr.Code() != 422 {
		t.Errorf("inactive empresa should get 422, got %+v", apierr)
	}
}

func TestTransitionRegimeFirstAssignment(t *testing.T) {
	svc, db := newTransicaoService(t)

	tribB := seedTributacao(t, db, "Lucro Presumido")
	supervisor := seedUsuario(t, db, "sup", entity.UserSupervisor, nil)
	tarefaB := seedTarefa(t, db, "PIS/COFINS", entity.CycleMensal, idPtr(tribB.ID), nil, false)
	empresa := seedEmpresa(t, db, "E007", nil)

	resp, apierr := svc.TransitionRegime(supervisor, empresa.ID, &contract.TransicaoRequest{TributacaoID: tribB.ID})
	if apierr != nil {
		t.Fatalf("first regime assignment failed: %+v", apierr)
	}

	if resp.Mudanca.TributacaoAnterior != "" {
		t.Errorf("previous regime = %q, want empty", resp.Mudanca.TributacaoAnterior)
	}
	if resp.TarefasCriadas != 1 {
		t.Errorf("criadas = %d, want 1", resp.TarefasCriadas)
	}

	var rel entity.RelacionamentoTarefa
	if err := db.Where("empresa_id = ? AND tarefa_id = ?", empresa.ID, tarefaB.ID).First(&rel).Error; err != nil {
		t.Fatalf("provisioned slot not found: %v", err)
	}
	if rel.ResponsavelID != nil || rel.VinculacaoID == nil {
		t.Error("provisioned slot should be unassigned and tied to the new binding")
	}
}
