package service

import (
	"testing"

	"contatask/cmd/internal/contract"
	"contatask/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

func newTarefaService(t *testing.T) (*DefaultTarefaService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewTarefaService(db, testClock(), testPolicy(), newTestValidator())
	return svc, db
}

func TestVincularTarefaBulk(t *testing.T) {
	svc, db := newTarefaService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	outro := seedUsuario(t, db, "bob", entity.UserNormal, nil)

	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), nil, false)

	livre := seedEmpresa(t, db, "E301", idPtr(trib.ID))
	comSlot := seedEmpresa(t, db, "E302", idPtr(trib.ID))
	ocupada := seedEmpresa(t, db, "E303", idPtr(trib.ID))

	slot := seedRelacionamento(t, db, comSlot.ID, tarefa.ID, nil)
	seedRelacionamento(t, db, ocupada.ID, tarefa.ID, idPtr(outro.ID))

	req := &contract.VincularRequest{
		FuncionarioID: analista.ID,
		TarefaID:      tarefa.ID,
		EmpresasIDs:   []int64{livre.ID, comSlot.ID, ocupada.ID},
	}
	resp, apierr := svc.VincularTarefa(admin, req)
	if apierr != nil {
		t.Fatalf("VincularTarefa failed: %+v", apierr)
	}

	if resp.Criados != 2 {
		t.Errorf("criados = %d, want 2 (fresh binding + unassigned slot)", resp.Criados)
	}
	if len(resp.Erros) != 1 {
		t.Errorf("erros = %v, want exactly the occupied slot", resp.Erros)
	}

	// The unassigned slot was reused, not duplicated.
	reused := reloadRelacionamento(t, db, slot.ID)
	if reused.ResponsavelID == nil || *reused.ResponsavelID != analista.ID {
		t.Error("existing slot was not assigned to the new responsavel")
	}

	var count int64
	db.Model(&entity.RelacionamentoTarefa{}).
		Where("empresa_id = ? AND tarefa_id = ?", comSlot.ID, tarefa.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("slots for reused company = %d, want 1", count)
	}

	// The fresh binding is tied to the company's active regime binding.
	var novo entity.RelacionamentoTarefa
	db.Where("empresa_id = ? AND tarefa_id = ?", livre.ID, tarefa.ID).First(&novo)
	if novo.VinculacaoID == nil {
		t.Error("fresh binding has no vinculacao reference")
	}

	// Re-running the same request only reports duplicates.
	resp, apierr = svc.VincularTarefa(admin, req)
	if apierr != nil {
		t.Fatalf("second run failed: %+v", apierr)
	}
	if resp.Criados != 0 || resp.Duplicados != 2 {
		t.Errorf("second run: criados=%d duplicados=%d, want 0/2", resp.Criados, resp.Duplicados)
	}
}

func TestVincularTarefaAnualRejected(t *testing.T) {
	svc, db := newTarefaService(t)

	trib := seedTributacao(t, db, "Lucro Real")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)
	anual := seedTarefa(t, db, "ECF", entity.CycleAnual, idPtr(trib.ID), nil, false)
	empresa := seedEmpresa(t, db, "E304", idPtr(trib.ID))

	_, apierr := svc.VincularTarefa(admin, &contract.VincularRequest{
		FuncionarioID: analista.ID,
		TarefaID:      anual.ID,
		EmpresasIDs:   []int64{empresa.ID},
	})
	if apierr == nil || apierr.Code() != 422 {
		t.Errorf("binding an annual task should fail with 422, got %+v", apierr)
	}
}

func TestVincularTarefaRegimeIncompativel(t *testing.T) {
	svc, db := newTarefaService(t)

	simples := seedTributacao(t, db, "Simples Nacional")
	presumido := seedTributacao(t, db, "Lucro Presumido")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	analista := seedUsuario(t, db, "ana", entity.UserNormal, nil)

	tarefaSimples := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(simples.ID), nil, false)
	comum := seedTarefa(t, db, "Folha", entity.CycleMensal, nil, nil, true)
	inativa := seedEmpresa(t, db, "E305", idPtr(simples.ID))
	db.Model(inativa).Update("ativo", false)
	empresaPresumido := seedEmpresa(t, db, "E306", idPtr(presumido.ID))

	resp, apierr := svc.VincularTarefa(admin, &contract.VincularRequest{
		FuncionarioID: analista.ID,
		TarefaID:      tarefaSimples.ID,
		EmpresasIDs:   []int64{inativa.ID, empresaPresumido.ID},
	})
	if apierr != nil {
		t.Fatalf("VincularTarefa failed: %+v", apierr)
	}
	if resp.Criados != 0 || len(resp.Erros) != 2 {
		t.Errorf("criados=%d erros=%v, want 0 created and 2 skipped", resp.Criados, resp.Erros)
	}

	// A common task binds regardless of regime.
	resp, apierr = svc.VincularTarefa(admin, &contract.VincularRequest{
		FuncionarioID: analista.ID,
		TarefaID:      comum.ID,
		EmpresasIDs:   []int64{empresaPresumido.ID},
	})
	if apierr != nil {
		t.Fatalf("VincularTarefa failed: %+v", apierr)
	}
	if resp.Criados != 1 {
		t.Errorf("common task: criados = %d, want 1", resp.Criados)
	}
}

func TestVincularTarefaSectorFence(t *testing.T) {
	svc, db := newTarefaService(t)

	trib := seedTributacao(t, db, "Simples Nacional")
	fiscal := seedSetor(t, db, "Fiscal")
	contabil := seedSetor(t, db, "Contábil")

	gerente := seedUsuario(t, db, "ger", entity.UserGerente, idPtr(fiscal.ID))
	forasteiro := seedUsuario(t, db, "bob", entity.UserNormal, idPtr(contabil.ID))

	tarefa := seedTarefa(t, db, "DAS", entity.CycleMensal, idPtr(trib.ID), idPtr(fiscal.ID), false)
	empresa := seedEmpresa(t, db, "E307", idPtr(trib.ID))

	_, apierr := svc.VincularTarefa(gerente, &contract.VincularRequest{
		FuncionarioID: forasteiro.ID,
		TarefaID:      tarefa.ID,
		EmpresasIDs:   []int64{empresa.ID},
	})
	if apierr == nil || apierr.Code() != 403 {
		t.Errorf("assigning outside the sector should fail with 403, got %+v", apierr)
	}
}

func TestAddCatalogo(t *testing.T) {
	svc, db := newTarefaService(t)

	simples := seedTributacao(t, db, "Simples Nacional")
	presumido := seedTributacao(t, db, "Lucro Presumido")
	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	tarefa := seedTarefa(t, db, "DCTF", entity.CycleMensal, idPtr(simples.ID), nil, false)

	req := &contract.CatalogoRequest{TarefaID: tarefa.ID, TributacaoID: presumido.ID, Obrigatoria: true}
	if apierr := svc.AddCatalogo(admin, req); apierr != nil {
		t.Fatalf("AddCatalogo failed: %+v", apierr)
	}

	if apierr := svc.AddCatalogo(admin, req); apierr == nil || apierr.Code() != 409 {
		t.Errorf("duplicate catalog entry should fail with 409, got %+v", apierr)
	}

	// The task's own regime counts as already bound.
	same := &contract.CatalogoRequest{TarefaID: tarefa.ID, TributacaoID: simples.ID}
	if apierr := svc.AddCatalogo(admin, same); apierr == nil || apierr.Code() != 409 {
		t.Errorf("re-binding the direct regime should fail with 409, got %+v", apierr)
	}
}

func TestCreateTarefaValidation(t *testing.T) {
	svc, db := newTarefaService(t)

	admin := seedUsuario(t, db, "adm", entity.UserAdmin, nil)
	normal := seedUsuario(t, db, "ana", entity.UserNormal, nil)

	if _, apierr := svc.CreateTarefa(normal, &contract.CreateTarefaRequest{Nome: "X", Tipo: "Mensal"}); apierr == nil || apierr.Code() != 403 {
		t.Errorf("non-admin creation should fail with 403, got %+v", apierr)
	}

	if _, apierr := svc.CreateTarefa(admin, &contract.CreateTarefaRequest{Nome: "X", Tipo: "Semanal"}); apierr == nil || apierr.Code() != 400 {
		t.Errorf("unknown cycle should fail with 400, got %+v", apierr)
	}

	if _, apierr := svc.CreateTarefa(admin, &contract.CreateTarefaRequest{Nome: "X", Tipo: "Mensal", SetorID: idPtr(99)}); apierr == nil || apierr.Code() != 404 {
		t.Errorf("unknown setor should fail with 404, got %+v", apierr)
	}

	resp, apierr := svc.CreateTarefa(admin, &contract.CreateTarefaRequest{Nome: "  DEFIS  ", Tipo: "Anual"})
	if apierr != nil {
		t.Fatalf("CreateTarefa failed: %+v", apierr)
	}
	if resp.Nome != "DEFIS" {
		t.Errorf("nome = %q, want trimmed", resp.Nome)
	}
}
