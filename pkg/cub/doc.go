// Package cub provides types, interfaces, and helpers for working with the Cub
// identity and organization API.
//
// # Overview
//
// The cub package defines the domain models (User, Organization, Member,
// Group, Lead, Country, Message, Site, WebhookSubscription), the parameter
// encoder and the response decoder. A concrete client is provided by the
// cubclient package, which wires configuration, transport, and credentials.
//
// Getting a client
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
//	  cli, err := cubclient.New(ctx, &cub.Config{APIKey: "sk_..."})
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  orgs, err := cli.Organizations().List(ctx, cub.P("count", 2))
//	  if err != nil { log.Fatal(err) }
//	  _ = orgs
//	}
//
// # Parameters
//
// Parameter trees are flattened into bracket notation before they are sent:
//
//	cub.Encode(cub.P("root", cub.P("dict", cub.List{"val"})))
//	// root[dict][0]=val
//
// Strings that the service would read back as a literal ("true", "null",
// "1") are sent quoted. Use Params rather than a map when key order matters.
//
// # Decoding
//
// Every payload carrying an "object" field is decoded into the model
// registered for that kind, recursively. Unknown kinds decode into a generic
// *Object that keeps all fields. Models report missing fields through a
// second return value instead of failing, since partial responses omit
// fields that were not requested.
//
// # Errors
//
// Calls fail with *ConnectionError when the service could not be reached
// after all retries, and with *APIError for error statuses. Helpers such as
// IsNotFound and IsConnectionError branch on the common cases.
package cub
