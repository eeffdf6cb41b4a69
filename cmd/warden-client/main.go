// Package main is an interactive terminal client for the Warden
// authentication server.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/server"
)

const (
	maxFailedLoginAttempts = 3
	loginCooldown          = time.Minute
)

const startingMenu = `Please enter your command in one of these formats:

1.register --username <username> --password <password> --first-name <firstName> --last-name <lastName> --email <email>
2.login --username <username> --password <password>
3.login --session-id <sessionId>
4.disconnect
`

const actionMenu = `Please enter your command in one of these formats:

1.update-user --session-id <sessionId> --new-username <newUsername> --new-first-name <newFirstName> --new-last-name <newLastName> --new-email <newEmail>
2.reset-password --session-id <sessionId> --username <username> --old-password <oldPassword> --new-password <newPassword>
3.logout --session-id <sessionId>
4.add-admin-user --session-id <sessionId> --username <username>
5.remove-admin-user --session-id <sessionId> --username <username>
6.delete-user --session-id <sessionId> --username <username>
7.download-database --session-id <sessionId>
8.disconnect
`

type client struct {
	conn    net.Conn
	stdin   *bufio.Scanner
	decoder *json.Decoder
	encoder *json.Encoder

	failedLogins int
}

func main() {
	addr := flag.String("addr", "localhost:4444", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	c := &client{
		conn:    conn,
		stdin:   bufio.NewScanner(os.Stdin),
		decoder: json.NewDecoder(conn),
		encoder: json.NewEncoder(conn),
	}
	c.run()
}

func (c *client) run() {
	for {
		if disconnected := c.authenticate(); disconnected {
			return
		}
		if disconnected := c.performActions(); disconnected {
			return
		}
	}
}

// authenticate loops on the starting menu until a register or login
// succeeds, or the user disconnects.
func (c *client) authenticate() bool {
	for {
		message, ok := c.prompt(startingMenu)
		if !ok || message == "disconnect" {
			return true
		}

		resp, err := c.send(message, domain.TierUnsecure)
		if err != nil {
			reportNetworkProblem()
			return true
		}
		fmt.Println(resp.Message + "\n")

		c.countFailedLogin(resp)
		if c.failedLogins >= maxFailedLoginAttempts {
			c.cooldown()
		}
		if resp.Status == domain.StatusSuccessful {
			return false
		}
	}
}

// performActions loops on the action menu until logout succeeds, the
// session turns out to be logged out, or the user disconnects.
func (c *client) performActions() bool {
	for {
		message, ok := c.prompt(actionMenu)
		if !ok || message == "disconnect" {
			return true
		}

		resp, err := c.send(message, domain.TierSecure)
		if err != nil {
			reportNetworkProblem()
			return true
		}
		fmt.Println(resp.Message + "\n")

		c.countFailedLogin(resp)
		if resp.Status == domain.StatusSuccessful && resp.Kind == domain.KindLogout {
			return false
		}
		if resp.LoggedOut {
			return false
		}
	}
}

func (c *client) prompt(menu string) (string, bool) {
	fmt.Println(menu)
	if !c.stdin.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.stdin.Text()), true
}

func (c *client) send(message string, tier domain.Tier) (server.Response, error) {
	if err := c.encoder.Encode(server.Request{Message: message, Tier: tier}); err != nil {
		return server.Response{}, err
	}
	var resp server.Response
	if err := c.decoder.Decode(&resp); err != nil {
		return server.Response{}, err
	}
	return resp, nil
}

func (c *client) countFailedLogin(resp server.Response) {
	if resp.Kind != domain.KindLoginByUsername && resp.Kind != domain.KindLoginBySessionID {
		return
	}
	if resp.Status == domain.StatusSuccessful {
		c.failedLogins = 0
	} else {
		c.failedLogins++
	}
}

func (c *client) cooldown() {
	fmt.Println("You have exceeded the login attempts. Try to log in after 1 min.")
	time.Sleep(loginCooldown)
	c.failedLogins = 0
}

func reportNetworkProblem() {
	fmt.Println("There is a problem with the network communication. " +
		"Try again later or contact your administrator.")
}
