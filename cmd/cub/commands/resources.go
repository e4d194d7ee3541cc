package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivelum/cub-client/internal/client"
	"github.com/ivelum/cub-client/pkg/cub"
)

// ResourceCommandConfig describes a list/get command group of one resource.
type ResourceCommandConfig[T cub.Model] struct {
	Use      string
	Aliases  []string
	Singular string
	Plural   string
	Resource func(c *client.Client) cub.ResourceClient[T]
}

// NewResourceCommand creates a command group with list and get subcommands.
func NewResourceCommand[T cub.Model](config ResourceCommandConfig[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     config.Use,
		Aliases: config.Aliases,
		Short:   "Manage " + config.Plural,
		Long:    "List and inspect " + config.Plural,
	}

	cmd.AddCommand(newResourceListCommand(config))
	cmd.AddCommand(newResourceGetCommand(config))

	return cmd
}

func newResourceListCommand[T cub.Model](config ResourceCommandConfig[T]) *cobra.Command {
	var (
		filters []string
		count   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + config.Plural,
		Long:  "List " + config.Plural + " visible to the current credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseKeyValues(filters)
			if err != nil {
				return err
			}

			if count > 0 {
				params = params.Set("count", count)
			}

			if offset > 0 {
				params = params.Set("offset", offset)
			}

			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			items, err := config.Resource(cubClient).List(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", config.Plural, err)
			}

			return renderModels(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&count, "count", 0, "maximum number of objects to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of objects to skip")

	return cmd
}

func newResourceGetCommand[T cub.Model](config ResourceCommandConfig[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get " + config.Singular + " details",
		Long:  "Display detailed information about a specific " + config.Singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			obj, err := config.Resource(cubClient).Get(cmd.Context(), args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", config.Singular, err)
			}

			return renderModel(cmd.OutOrStdout(), obj)
		},
	}
}

// NewOrgsCommand creates the organizations command group.
func NewOrgsCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Organization]{
		Use:      "orgs",
		Aliases:  []string{"organizations", "org"},
		Singular: "organization",
		Plural:   "organizations",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Organization] { return c.Organizations() },
	})
}

// NewMembersCommand creates the members command group.
func NewMembersCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Member]{
		Use:      "members",
		Aliases:  []string{"member"},
		Singular: "member",
		Plural:   "members",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Member] { return c.Members() },
	})
}

// NewGroupsCommand creates the groups command group.
func NewGroupsCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Group]{
		Use:      "groups",
		Aliases:  []string{"group"},
		Singular: "group",
		Plural:   "groups",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Group] { return c.Groups() },
	})
}

// NewGroupMembersCommand creates the group members command group.
func NewGroupMembersCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.GroupMember]{
		Use:      "groupmembers",
		Aliases:  []string{"group-members"},
		Singular: "group member",
		Plural:   "group members",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.GroupMember] { return c.GroupMembers() },
	})
}

// NewLeadsCommand creates the leads command group.
func NewLeadsCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Lead]{
		Use:      "leads",
		Aliases:  []string{"lead"},
		Singular: "lead",
		Plural:   "leads",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Lead] { return c.Leads() },
	})
}

// NewCountriesCommand creates the countries command group.
func NewCountriesCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Country]{
		Use:      "countries",
		Aliases:  []string{"country"},
		Singular: "country",
		Plural:   "countries",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Country] { return c.Countries() },
	})
}

// NewStatesCommand creates the states command group.
func NewStatesCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.State]{
		Use:      "states",
		Aliases:  []string{"state"},
		Singular: "state",
		Plural:   "states",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.State] { return c.States() },
	})
}

// NewMessagesCommand creates the messages command group.
func NewMessagesCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Message]{
		Use:      "messages",
		Aliases:  []string{"message"},
		Singular: "message",
		Plural:   "messages",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Message] { return c.Messages() },
	})
}

// NewSitesCommand creates the sites command group.
func NewSitesCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.Site]{
		Use:      "sites",
		Aliases:  []string{"site"},
		Singular: "site",
		Plural:   "sites",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.Site] { return c.Sites() },
	})
}

// NewWebhooksCommand creates the webhook subscriptions command group.
func NewWebhooksCommand() *cobra.Command {
	return NewResourceCommand(ResourceCommandConfig[*cub.WebhookSubscription]{
		Use:      "webhooks",
		Aliases:  []string{"webhooksubscriptions", "webhook"},
		Singular: "webhook subscription",
		Plural:   "webhook subscriptions",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.WebhookSubscription] {
			return c.WebhookSubscriptions()
		},
	})
}
