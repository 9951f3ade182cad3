package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the friend list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result FriendList
			if err := app.client.Get(cmd.Context(), "/api/v1/friends", &result); err != nil {
				return err
			}
			app.output(cmd).Print(result)
			return nil
		},
	}
}

func newAddCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "add <username-or-uuid>",
		Short: "Add a player to the friend list",
		Long: `Add a player by username or profile id. Input that parses as a profile id
(32 hex characters, hyphens optional) is looked up by id; anything else is
looked up as a username.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AddResult
			err := app.client.Post(cmd.Context(), "/api/v1/friends", map[string]string{"query": args[0]}, &result)
			if err != nil {
				return describeAddError(args[0], err)
			}
			app.output(cmd).Print(result)
			return nil
		},
	}
}

func newRemoveCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username-or-uuid>",
		Short: "Remove a player from the friend list",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			// Completion runs without the persistent pre-run hook
			if app.client == nil {
				if err := app.configure(cmd); err != nil {
					return nil, cobra.ShellCompDirectiveError
				}
			}
			var result Suggestions
			if err := app.client.Get(context.Background(), "/api/v1/suggestions?q="+url.QueryEscape(toComplete), &result); err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return result.Suggestions, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RemoveResult
			if err := app.client.Delete(cmd.Context(), friendPath(args[0]), &result); err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
					return fmt.Errorf("%s isn't on your friend list", args[0])
				}
				return err
			}
			app.output(cmd).Print(result)
			return nil
		},
	}
}

func newClearCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every friend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ClearResult
			if err := app.client.Delete(cmd.Context(), "/api/v1/friends", &result); err != nil {
				return err
			}
			app.output(cmd).Print(result)
			return nil
		},
	}
}

func newUpdateCmd(app *cliApp) *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh names and drop deleted players",
		Long: `Look up every friend by profile id. Renamed players get their current name.
Players whose profile no longer exists are removed, unless the profile service
appears to be down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if async {
				if err := app.client.Post(cmd.Context(), "/api/v1/friends/reconcile?async=true", nil, nil); err != nil {
					return err
				}
				app.output(cmd).PrintMessage("Update queued.")
				return nil
			}

			var result ReconcileResult
			if err := app.client.Post(cmd.Context(), "/api/v1/friends/reconcile", nil, &result); err != nil {
				return err
			}
			app.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Queue the update and return immediately")

	return cmd
}

func newSuggestCmd(app *cliApp) *cobra.Command {
	var online []string

	cmd := &cobra.Command{
		Use:   "suggest [partial]",
		Short: "Suggest friend names, or online players who are not friends yet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if len(args) == 1 {
				query.Set("q", args[0])
			}
			if len(online) > 0 {
				query.Set("online", strings.Join(online, ","))
			}

			var result Suggestions
			if err := app.client.Get(cmd.Context(), "/api/v1/suggestions?"+query.Encode(), &result); err != nil {
				return err
			}
			app.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&online, "online", nil, "Online player names to suggest from")

	return cmd
}

func newStatusCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show registry and profile service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatusResult
			if err := app.client.Get(cmd.Context(), "/api/v1/status", &result); err != nil {
				return err
			}
			app.output(cmd).Print(result)
			return nil
		},
	}
}

// describeAddError turns API error codes into the messages a player expects
func describeAddError(query string, err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case "ALREADY_PRESENT":
		return fmt.Errorf("%s is already on your friend list", query)
	case "PROFILE_NOT_FOUND":
		return fmt.Errorf("%s doesn't exist", query)
	case "RESOLVER_UNAVAILABLE":
		return fmt.Errorf("could not look up %s: the profile service is unavailable", query)
	default:
		return err
	}
}
