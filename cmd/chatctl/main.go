// Command chatctl is a terminal client for the messaging server.
//
//	chatctl login <username> <password>
//	chatctl listen
//	chatctl send <receiverId> <text...>
//	chatctl inbox
//	chatctl history <peerId>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inbox-live/domain"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

const usage = `usage: chatctl <command> [args]

commands:
  login <username> <password>   print a token to export as CHATCTL_TOKEN
  listen                        print messages pushed to you
  send <receiverId> <text...>   send a direct message
  inbox                         list your conversations
  history <peerId>              show a conversation, oldest first`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "chatctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if !config.Colours {
		color.Disable()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	client := NewClient(config.ServerURL, config.Token)

	switch command, rest := args[0], args[1:]; command {
	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("login takes a username and a password")
		}
		session, err := client.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "export CHATCTL_TOKEN=%s\nexport CHATCTL_USER_ID=%s\n", session.Token, session.User.ID)
		return nil

	case "listen":
		if config.Token == "" && config.UserID == "" {
			return fmt.Errorf("set CHATCTL_TOKEN or CHATCTL_USER_ID")
		}
		fmt.Fprintln(out, color.Gray.Render("listening, ctrl-c to stop"))
		return client.Listen(ctx, config.UserID, func(m domain.Message) {
			fmt.Fprintf(out, "%s %s %s\n",
				color.Gray.Render(m.CreatedAt.Local().Format(time.TimeOnly)),
				color.Cyan.Render(m.SenderID),
				m.Body)
		})

	case "send":
		if len(rest) < 2 {
			return fmt.Errorf("send takes a receiver id and a text")
		}
		message, err := client.Send(ctx, rest[0], strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", color.Green.Render("sent"), message.ID)
		return nil

	case "inbox":
		conversations, err := client.Inbox(ctx)
		if err != nil {
			return err
		}
		renderInbox(out, conversations)
		return nil

	case "history":
		if len(rest) != 1 {
			return fmt.Errorf("history takes a peer id")
		}
		messages, err := client.History(ctx, rest[0])
		if err != nil {
			return err
		}
		renderHistory(out, messages)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	return table
}

func renderInbox(out io.Writer, conversations []domain.Conversation) {
	table := newTable(out, "Peer", "Username", "At", "Last message")
	for _, c := range conversations {
		table.Append([]string{c.Peer.ID, c.Peer.Username, c.LastMessage.CreatedAt.Local().Format(time.DateTime), c.LastMessage.Body})
	}
	table.Render()
}

func renderHistory(out io.Writer, messages []domain.Message) {
	table := newTable(out, "At", "From", "Message")
	for _, m := range messages {
		table.Append([]string{m.CreatedAt.Local().Format(time.DateTime), m.SenderID, m.Body})
	}
	table.Render()
}
