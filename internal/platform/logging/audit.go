package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// LogAuditEvent logs a structured audit event for a profile mutation.
//
// Args:
//   - action: The action performed ("create", "remove")
//   - account: The account the action ran as (email on the client side, account key on the simulator)
//   - resourceType: The type of resource (e.g., "profile")
//   - resourceID: The ULID of the resource, empty when not yet known
//   - result: AuditSuccess or AuditFailure
//   - details: Optional additional details
func LogAuditEvent(
	ctx context.Context,
	action, account, resourceType, resourceID, result string,
	details map[string]any,
) {
	logger := LoggerFromContext(ctx)

	logger.Info("Audit event",
		zap.String("audit.action", action),
		zap.String("audit.account", account),
		zap.String("audit.resource_type", resourceType),
		zap.String("audit.resource_id", resourceID),
		zap.String("audit.result", result),
		zap.Any("audit.details", details),
	)
}
