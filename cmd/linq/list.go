package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arvarik/linq-go/linq"
)

func newChatsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Work with chats",
	}

	var (
		params linq.ListChatsParams
		all    bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the chats of a partner phone number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if all {
				it := client.Chats.ListAll(&params)
				for chat, err := range it.All(ctx) {
					if err != nil {
						return err
					}
					if err := writeLine(out, chat); err != nil {
						return err
					}
				}
				return nil
			}

			page, err := client.Chats.List(ctx, &params)
			if err != nil {
				return err
			}
			for _, chat := range page.Chats {
				if err := writeLine(out, chat); err != nil {
					return err
				}
			}
			reportCursor(cmd, page.NextCursor)
			return nil
		},
	}
	list.Flags().StringVar(&params.From, "from", "", "Partner phone number in E.164 form")
	list.Flags().IntVar(&params.Limit, "limit", 0, "Page size (server default when 0)")
	list.Flags().StringVar(&params.Cursor, "cursor", "", "Cursor returned by a previous page")
	list.Flags().BoolVar(&all, "all", false, "Follow cursors until the last page")
	_ = list.MarkFlagRequired("from")

	cmd.AddCommand(list)
	return cmd
}

func newMessagesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Work with messages",
	}

	var (
		params linq.ListMessagesParams
		all    bool
	)
	list := &cobra.Command{
		Use:   "list CHAT_ID",
		Short: "List the messages of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			chatID := args[0]

			if all {
				for msg, err := range client.Messages.ListAllByChat(chatID, &params).All(ctx) {
					if err != nil {
						return err
					}
					if err := writeLine(out, msg); err != nil {
						return err
					}
				}
				return nil
			}

			page, err := client.Messages.ListByChat(ctx, chatID, &params)
			if err != nil {
				return err
			}
			for _, msg := range page.Messages {
				if err := writeLine(out, msg); err != nil {
					return err
				}
			}
			reportCursor(cmd, page.NextCursor)
			return nil
		},
	}
	list.Flags().IntVar(&params.Limit, "limit", 0, "Page size (server default when 0)")
	list.Flags().StringVar(&params.Cursor, "cursor", "", "Cursor returned by a previous page")
	list.Flags().BoolVar(&all, "all", false, "Follow cursors until the last page")

	cmd.AddCommand(list)
	return cmd
}

// writeLine prints v as one line of JSON.
func writeLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func reportCursor(cmd *cobra.Command, cursor string) {
	if cursor != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "more results: --cursor %s\n", cursor)
	}
}
