// Package authz implements the fixed role/operation permission matrix
// behind the AuthZ capability this core's operations consume before
// acting.
package authz

import (
	"fmt"

	"github.com/sawpanic/invforecast/internal/domain"
)

// Operation names the permission matrix is keyed on.
type Operation string

const (
	OpGenerateForecast Operation = "generate_forecast"
	OpApproveReject    Operation = "approve_reject"
	OpSubmitFeedback   Operation = "submit_feedback"
	OpView             Operation = "view"
)

// AuthZ authorizes an actor to perform an operation.
type AuthZ interface {
	RequireRole(actor domain.Actor, op Operation) error
}

// RoleMatrix is the default in-process AuthZ implementation evaluating
// the fixed operation/role permission table.
type RoleMatrix struct{}

var matrix = map[Operation]map[domain.Role]bool{
	OpGenerateForecast: {domain.RoleFinance: true, domain.RoleOwner: true},
	OpApproveReject:    {domain.RoleFinance: true, domain.RoleOwner: true},
	OpSubmitFeedback:   {domain.RoleFinance: true, domain.RoleOps: true, domain.RoleOwner: true},
	OpView:             {domain.RoleFinance: true, domain.RoleOps: true, domain.RoleOwner: true, domain.RoleReadOnly: true},
}

func (RoleMatrix) RequireRole(actor domain.Actor, op Operation) error {
	allowed, ok := matrix[op]
	if !ok {
		return domain.Internal(fmt.Sprintf("unknown operation %q", op))
	}
	if !allowed[actor.Role] {
		return domain.InvalidArgument(fmt.Sprintf("role %s is not permitted to perform %s", actor.Role, op))
	}
	return nil
}
