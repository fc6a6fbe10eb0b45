package policy

import (
	"contatask/cmd/internal/domain/entity"
	"contatask/cmd/internal/utils/apierror"
)

// AcessoPolicy encapsulates the role and sector rules for every sensitive
// operation. It returns apierror.ErrorResponse directly for seamless
// integration with handlers and services.
type AcessoPolicy struct{}

func NewAcessoPolicy() *AcessoPolicy {
	return &AcessoPolicy{}
}

// CanTransitionRegime checks whether 'actor' may switch a company's tax
// regime. Transitions are the supervisor surface; admins can always act.
func (p *AcessoPolicy) CanTransitionRegime(actor *entity.Usuario) apierror.ErrorResponse {
	if actor.Tipo == entity.UserSupervisor || actor.Tipo == entity.UserAdmin {
		return nil
	}
	return apierror.NewForbiddenError("only supervisors can change a company's tax regime")
}

// CanReviewMudancas checks whether 'actor' may see and work pending
// regime-change tickets.
func (p *AcessoPolicy) CanReviewMudancas(actor *entity.Usuario) apierror.ErrorResponse {
	if actor.PodeGerenciar() {
		return nil
	}
	return apierror.NewForbiddenError("only managers can review regime changes")
}

// CanManageCadastros checks whether 'actor' may create companies, staff and
// task definitions.
func (p *AcessoPolicy) CanManageCadastros(actor *entity.Usuario) apierror.ErrorResponse {
	if actor.Tipo == entity.UserAdmin {
		return nil
	}
	return apierror.NewForbiddenError("only administrators can manage registrations")
}

// CanAssignTo checks whether 'actor' may hand work to 'responsavel'.
// Gerentes are confined to their own sector; admins are unrestricted.
func (p *AcessoPolicy) CanAssignTo(actor, responsavel *entity.Usuario) apierror.ErrorResponse {
	if !responsavel.Ativo {
		return apierror.NewBusinessRuleError("user %d is inactive and cannot receive work", responsavel.ID)
	}

	if actor.Tipo == entity.UserAdmin {
		return nil
	}

	if actor.Tipo != entity.UserGerente {
		return apierror.NewForbiddenError("only managers can assign work")
	}

	if actor.SetorID != nil && (responsavel.SetorID == nil || *responsavel.SetorID != *actor.SetorID) {
		return apierror.NewForbiddenError("user does not belong to your sector")
	}
	return nil
}

// CanTouchTarefa checks whether 'actor' may operate on a task definition.
// The sector fence only applies to gerentes.
func (p *AcessoPolicy) CanTouchTarefa(actor *entity.Usuario, tarefa *entity.Tarefa) apierror.ErrorResponse {
	if actor.Tipo == entity.UserAdmin {
		return nil
	}

	if actor.Tipo != entity.UserGerente {
		return apierror.NewForbiddenError("only managers can operate on tasks")
	}

	if actor.SetorID != nil && (tarefa.SetorID == nil || *tarefa.SetorID != *actor.SetorID) {
		return apierror.NewForbiddenError("task does not belong to your sector")
	}
	return nil
}

// SectorScope resolves the sector filter for listings: gerentes see their
// own sector only, everyone else sees everything.
func (p *AcessoPolicy) SectorScope(actor *entity.Usuario) *int64 {
	if actor.Tipo == entity.UserGerente {
		return actor.SetorID
	}
	return nil
}
