package notification

import (
	"context"
)

// Sink accepts outbound email. Delivery is fire-and-forget: failures are
// logged and recorded by the sink and never reported to the caller.
type Sink interface {
	Send(ctx context.Context, msg Message)
}
