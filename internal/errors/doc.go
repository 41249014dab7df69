// Package errors provides the structured error type shared by every layer of
// rpg-advancement.
//
// Errors carry a Code, a user-facing message, an optional cause and metadata.
// The advancement engine distinguishes four kinds of failure:
//
//   - validation: CodeInvalidArgument, with per-field messages under the
//     "validation_errors" metadata key (see ValidationBuilder)
//   - not found: CodeNotFound
//   - sequencing: CodeFailedPrecondition, with a "reason" metadata key such as
//     ReasonBlockedByPriorChoice
//   - integrity: CodeDataLoss, raised when rulebook content contradicts itself
//
// Wrapping keeps the original code:
//
//	if err := repo.Get(ctx, id); err != nil {
//	    return errors.Wrapf(err, "failed to load character %s", id)
//	}
//
// Sequencing checks:
//
//	if errors.IsBlockedByPriorChoice(err) {
//	    // resolve the important choice first
//	}
//
// Handlers convert to gRPC status with ToGRPCError.
package errors
