// Package cli is the interactive terminal front end for the chirp client:
// a prompt, a handful of commands, and plain-text rendering of the feed.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/chirp/internal/client"
	"github.com/dmitrijs2005/chirp/internal/protocol"
)

// Config holds the connection settings collected by cmd/client.
type Config struct {
	ServerURL   string
	UserID      string
	DisplayName string
}

type App struct {
	cfg    *Config
	client *client.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *Config) *App {
	return &App{
		cfg:    cfg,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run prompts for the password, connects, and enters the command loop.
func (a *App) Run(ctx context.Context) error {
	password, err := GetPassword(a.out, "Password for "+a.cfg.UserID)
	if err != nil {
		return err
	}

	c, err := client.Dial(ctx, a.cfg.ServerURL, protocol.Login{
		UserID:      a.cfg.UserID,
		DisplayName: a.cfg.DisplayName,
		Password:    password,
	})
	if err != nil {
		return err
	}
	a.client = c

	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", c.Account().UserID, c.Account().DisplayName)
	a.repl(ctx)
	return nil
}

func (a *App) repl(ctx context.Context) {
	for {
		fmt.Fprint(a.out, "chirp> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			a.quit(false)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Commands: post, sync, feed, users, add <id>, remove <id>, ignore <id>, unignore <id>, edit, logout, quit")

		case "post":
			a.post()

		case "sync":
			a.sync()

		case "feed":
			a.showFeed()

		case "users":
			a.listUsers()

		case "add", "remove", "ignore", "unignore":
			if len(args) != 1 {
				fmt.Fprintf(a.out, "usage: %s <user id>\n", cmd)
				continue
			}
			a.friendOp(cmd, args[0])

		case "edit":
			a.editAccount()

		case "logout":
			a.quit(true)
			return

		case "quit", "exit":
			a.quit(false)
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) post() {
	body, err := GetSimpleText(a.reader, "Write your message on a single line:", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if err := a.client.Post(body); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Message sent")
}

func (a *App) sync() {
	posts, err := a.client.Sync()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "%d new post(s)\n", len(posts))
}

func (a *App) showFeed() {
	visible := a.client.Feed().Visible(a.client.Account())
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "Nothing to show. Try sync.")
		return
	}
	for _, p := range visible {
		fmt.Fprintf(a.out, "#%d %s: %s\n", p.ID, p.Author, p.Body)
	}
}

func (a *App) listUsers() {
	accounts := a.client.KnownAccounts()
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No known users yet. Try sync.")
		return
	}
	me := a.client.Account()
	for _, acc := range accounts {
		marker := ""
		if me.IsFriend(acc.UserID) {
			marker = " [friend]"
		}
		if me.IsIgnoring(acc.UserID) {
			marker += " [ignored]"
		}
		fmt.Fprintf(a.out, "%s (%s)%s\n", acc.UserID, acc.DisplayName, marker)
	}
}

// editAccount changes the display name and password: the current password
// is validated with the server first, then a credential update replaces the
// login record under the same user id.
func (a *App) editAccount() {
	current, err := GetPassword(a.out, "Current password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	me := a.client.Account()
	valid, err := a.client.ValidatePassword(protocol.Login{UserID: me.UserID, Password: current})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if !valid {
		fmt.Fprintln(a.out, "Wrong password!")
		return
	}

	newPassword, err := GetPassword(a.out, "New password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	name, err := GetSimpleText(a.reader, "New display name:", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.client.UpdateCredentials(protocol.Login{UserID: me.UserID, DisplayName: name, Password: newPassword}); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Account updated")
}

func (a *App) friendOp(cmd, userID string) {
	var err error
	switch cmd {
	case "add":
		err = a.client.AddFriend(userID)
	case "remove":
		err = a.client.RemoveFriend(userID)
	case "ignore":
		a.client.IgnoreFriend(userID)
	case "unignore":
		a.client.UnignoreFriend(userID)
	}
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
}

func (a *App) quit(logout bool) {
	if logout {
		if err := a.client.Logout(); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	} else {
		_ = a.client.Close()
	}
	fmt.Fprintln(a.out, "Bye!")
}
