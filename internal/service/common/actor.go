//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"google.golang.org/grpc/metadata"
)

// ActorMetadataKey carries the calling actor in gRPC metadata.
const ActorMetadataKey = "x-alarmify-actor"

// Actor identifies who issued a command, for the audit log.
type Actor struct {
	// Hostname is the machine the command came from.
	Hostname string
	// Username is the account that ran it.
	Username string
}

// DetectActor gathers host and user information for audit trail.
func DetectActor() (Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Actor{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Actor{}, fmt.Errorf("current user: %w", err)
	}

	return Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String renders the actor as user@host.
func (a Actor) String() string {
	return a.Username + "@" + a.Hostname
}

// OutgoingActor attaches the actor to an outgoing RPC context.
func OutgoingActor(ctx context.Context, a Actor) context.Context {
	if a == (Actor{}) {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, a.String())
}

// IncomingActor extracts the actor sent by the client, if any.
func IncomingActor(ctx context.Context) (string, bool) {
	values := metadata.ValueFromIncomingContext(ctx, ActorMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return "", false
	}

	return values[0], true
}
