package workflow

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	activity "commission/internal/activity/models"
	employee "commission/internal/employee/models"
	proposal "commission/internal/proposal/models"
	queue "commission/internal/queue/models"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
	"commission/pkg/requestcontext"
)

const lockProposal = "proposal"

// SubmitEmployeeEdit records a correction proposal for an employee and queues
// it for review. Changes equal to the current values are dropped; if nothing
// is left the submission is rejected and nothing is stored.
func (e *Engine) SubmitEmployeeEdit(ctx context.Context, employeeID string, changes employee.Changes, reason string, actor domain.Actor) (p *proposal.Proposal, err error) {
	ctx, span := e.startSpan(ctx, "SubmitEmployeeEdit", attribute.String("employee.id", employeeID))
	defer func() { endSpan(span, err) }()

	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := requireID(employeeID, "employee"); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "changes are required")
	}
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	reason = strings.TrimSpace(reason)
	err = e.inTx(ctx, func(ctx context.Context, record recordFunc) error {
		current, err := e.employees.FindByID(ctx, employeeID)
		if err != nil {
			return translate(err, "employee")
		}
		p, err = proposal.NewProposal(current, changes, reason, actor, now)
		if err != nil {
			return err
		}
		if err := e.proposals.Create(ctx, p); err != nil {
			return translate(err, "proposal")
		}
		if err := e.queue.Upsert(ctx, employeeEditEntry(p)); err != nil {
			return translate(err, "audit queue entry")
		}
		return record(ctx, activity.NewEntry(actor, activity.ActionSubmittedEmployeeCorrection,
			activity.EntityEmployee, p.EmployeeID, p.EmployeeName, map[string]any{
				"proposalId": p.ID,
				"changes":    changeDetails(p.Changes),
				"reason":     p.Reason,
			}, now))
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.IncrementSubmission(string(queue.EntityEmployeeEdit))
	}
	e.logAudit(ctx, activity.ActionSubmittedEmployeeCorrection,
		"actor_id", actor.ID,
		"entity_id", p.EmployeeID,
		"proposal_id", p.ID,
	)
	return p, nil
}

// DecideEmployeeEdit approves or rejects a pending proposal. Approval merges
// the proposed changes into the live employee record. A proposal is decided
// exactly once; later attempts fail with a conflict.
func (e *Engine) DecideEmployeeEdit(ctx context.Context, proposalID string, decision domain.Decision, actor domain.Actor, notes string) (err error) {
	ctx, span := e.startSpan(ctx, "DecideEmployeeEdit",
		attribute.String("proposal.id", proposalID),
		attribute.String("decision", string(decision)),
	)
	defer func() { endSpan(span, err) }()

	if err := validateDecision(decision, actor); err != nil {
		return err
	}
	if err := requireID(proposalID, "proposal"); err != nil {
		return err
	}
	start := time.Now()
	defer func() { e.observeDecision(string(queue.EntityEmployeeEdit), decision, err, start) }()

	unlock, err := e.acquire(ctx, lockProposal, proposalID)
	if err != nil {
		return err
	}
	defer unlock()

	now := requestcontext.Now(ctx)
	notes = strings.TrimSpace(notes)
	var resolved *proposal.Proposal
	err = e.inTx(ctx, func(ctx context.Context, record recordFunc) error {
		p, err := e.proposals.Execute(ctx, proposalID,
			func(p *proposal.Proposal) error {
				return p.CanResolve()
			},
			func(p *proposal.Proposal) {
				p.ApplyResolution(decision, actor, notes, now)
			},
		)
		if err != nil {
			return translate(err, "proposal")
		}
		resolved = p

		action := activity.ActionRejectedEmployeeCorrection
		entityName := p.EmployeeName
		if decision == domain.DecisionApprove {
			action = activity.ActionApprovedEmployeeCorrection
			updated, err := e.employees.Update(ctx, p.EmployeeID, p.Changes)
			if err != nil {
				return translate(err, "employee")
			}
			entityName = updated.Name
		}
		if err := e.removeQueued(ctx, p.ID); err != nil {
			return err
		}
		return record(ctx, activity.NewEntry(actor, action, activity.EntityEmployee, p.EmployeeID, entityName,
			map[string]any{
				"proposalId":        p.ID,
				"changes":           changeDetails(p.Changes),
				activity.DetailNotes: notes,
			}, now))
	})
	if err != nil {
		return err
	}

	e.logAudit(ctx, "employee_correction_"+string(decision),
		"actor_id", actor.ID,
		"entity_id", resolved.EmployeeID,
		"proposal_id", resolved.ID,
	)
	return nil
}

func employeeEditEntry(p *proposal.Proposal) *queue.Entry {
	return &queue.Entry{
		ID:              p.ID,
		EntityType:      queue.EntityEmployeeEdit,
		EntityID:        p.EmployeeID,
		EntityName:      p.EmployeeName,
		Status:          queue.StatusPending,
		SubmittedAt:     p.SubmittedAt,
		SubmittedByID:   p.SubmittedByID,
		SubmittedByName: p.SubmittedByName,
		Payload: &queue.EmployeeEditPayload{
			Current:  p.Current.Clone(),
			Proposed: p.Proposed(),
			Changes:  p.Changes.Clone(),
			Reason:   p.Reason,
		},
	}
}

func changeDetails(c employee.Changes) map[string]string {
	out := make(map[string]string, len(c))
	for f, v := range c {
		out[string(f)] = v
	}
	return out
}

func validateDecision(decision domain.Decision, actor domain.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !decision.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	return nil
}
