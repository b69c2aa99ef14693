package task

import "github.com/taskmarket/taskmarket/pkg/cerr"

// One error per precondition failure. Every operation either fully succeeds
// or returns exactly one of these with no mutation visible.
var (
	ErrTaskNotExist = cerr.NewError(cerr.NotFound, "task does not exist", nil)

	ErrTaskCountOverflow = cerr.NewError(cerr.OutOfRange, "task count overflow", nil)

	ErrExceedMaxTasksOwned = cerr.NewError(cerr.ResourceExhausted, "account owns the maximum number of tasks", nil)

	ErrNotEnoughBalance = cerr.NewError(cerr.FailedPrecondition, "not enough free balance to cover the budget", nil)

	ErrNoProfile = cerr.NewError(cerr.FailedPrecondition, "account has no profile", nil)

	ErrInvalidOrganization = cerr.NewError(cerr.InvalidArgument, "organization does not exist", nil)

	ErrIncorrectDeadlineTimestamp = cerr.NewError(cerr.InvalidArgument, "deadline must be in the future", nil)

	ErrOnlyInitiatorUpdatesTask = cerr.NewError(cerr.PermissionDenied, "only the initiator can update the task", nil)

	ErrNoPermissionToUpdate = cerr.NewError(cerr.PermissionDenied, "task can no longer be updated", nil)

	ErrNoPermissionToRemove = cerr.NewError(cerr.PermissionDenied, "no permission to remove the task", nil)

	ErrNoPermissionToStart = cerr.NewError(cerr.PermissionDenied, "no permission to start the task", nil)

	ErrNoPermissionToComplete = cerr.NewError(cerr.PermissionDenied, "no permission to complete the task", nil)

	ErrOnlyInitiatorAcceptsTask = cerr.NewError(cerr.PermissionDenied, "only the current owner can accept the task", nil)

	ErrOnlyCompletedTaskAreRejected = cerr.NewError(cerr.FailedPrecondition, "only completed tasks can be rejected", nil)
)
