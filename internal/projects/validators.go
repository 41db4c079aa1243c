package projects

import (
	"context"
	"strings"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

// createRules checks what needs the database: code uniqueness and that the
// customer and manager belong to the caller's company.
type createRules struct {
	store Store
}

func (r createRules) Validate(ctx context.Context, cmd CreateProjectCommand) ([]apperr.Failure, error) {
	var failures []apperr.Failure

	if cmd.Type != "" && !cmd.Type.IsValid() {
		failures = append(failures, apperr.Failure{Property: "Type", Message: "Type is not valid."})
	}
	if cmd.Priority != "" && !cmd.Priority.IsValid() {
		failures = append(failures, apperr.Failure{Property: "Priority", Message: "Priority is not valid."})
	}

	companyID, err := auth.FromContext(ctx).CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	unique := false
	if code := strings.TrimSpace(cmd.Code); code != "" {
		exists, err := r.store.CodeExists(ctx, companyID, code)
		if err != nil {
			return nil, err
		}
		unique = !exists
	}
	if !unique {
		failures = append(failures, apperr.Failure{Property: "Code", Message: "Project code must be unique."})
	}

	ok, err := r.store.CustomerExists(ctx, companyID, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		failures = append(failures, apperr.Failure{Property: "CustomerID", Message: "Customer does not exist."})
	}

	ok, err = r.store.UserExists(ctx, companyID, cmd.ProjectManagerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		failures = append(failures, apperr.Failure{Property: "ProjectManagerID", Message: "Project manager does not exist."})
	}

	return failures, nil
}

// updateRules checks the actual dates and enum values.
type updateRules struct {
	clock clock.Clock
}

func (r updateRules) Validate(_ context.Context, cmd UpdateProjectCommand) ([]apperr.Failure, error) {
	var failures []apperr.Failure

	if cmd.Status != "" && !cmd.Status.IsValid() {
		failures = append(failures, apperr.Failure{Property: "Status", Message: "Status is not valid."})
	}
	if cmd.Type != "" && !cmd.Type.IsValid() {
		failures = append(failures, apperr.Failure{Property: "Type", Message: "Type is not valid."})
	}
	if cmd.Priority != "" && !cmd.Priority.IsValid() {
		failures = append(failures, apperr.Failure{Property: "Priority", Message: "Priority is not valid."})
	}

	if cmd.ActualStartDate != nil && cmd.ActualStartDate.After(r.clock.UTCNow()) {
		failures = append(failures, apperr.Failure{Property: "ActualStartDate", Message: "Actual start date cannot be in the future."})
	}
	if cmd.ActualEndDate != nil {
		start := cmd.StartDate
		if cmd.ActualStartDate != nil {
			start = *cmd.ActualStartDate
		}
		if !cmd.ActualEndDate.After(start) {
			failures = append(failures, apperr.Failure{Property: "ActualEndDate", Message: "Actual end date must be after the start date."})
		}
	}

	return failures, nil
}
