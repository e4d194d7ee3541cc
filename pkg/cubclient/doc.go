// Package cubclient provides the primary entry point for constructing a Cub
// API client that implements the cub.Client interface.
//
// It layers configuration, the retrying transport, authentication and
// response decoding on top of the resource interfaces and types defined in
// the cub package. Most applications import cubclient to build a client, then
// use the returned cub.Client to access resource-specific clients, for example
// Users(), Organizations(), Leads().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/ivelum/cub-client/pkg/cub"
//	  "github.com/ivelum/cub-client/pkg/cubclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Organization API key against the public API.
//	  cli, err := cubclient.NewWithAPIKey(ctx, "sk_live_...")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  // Log a user in; later calls use the session token.
//	  user, err := cli.Users().Login(ctx, "jo@example.com", "secret")
//	  if err != nil { log.Fatal(err) }
//
//	  // Models in filters are sent as their identifier: user=usr_...
//	  members, err := cli.Members().List(ctx, cub.P("user", user))
//	  if err != nil { log.Fatal(err) }
//	  _ = members
//	}
//
// # Transport backends
//
// Config.Backend selects how attempts are sent: "http" (net/http, default),
// "resty", or "nats" to tunnel requests through a NATS request/reply gateway
// listening on Config.NATSSubject. Retries, timeouts and telemetry behave the
// same for every backend.
//
// # Helpers
//
// The package also provides convenience constructors NewWithAPIKey and
// NewWithToken that wrap New with the appropriate configuration.
package cubclient
