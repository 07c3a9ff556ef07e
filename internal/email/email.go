package email

import (
	"context"
)

type Service interface {
	SendRequestAssigned(ctx context.Context, to, assigneeName, requestID string) error
	SendRequestStatusChanged(ctx context.Context, to, requestID, status string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}
