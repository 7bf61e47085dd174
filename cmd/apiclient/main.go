package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"

	"github.com/worldOneo/loginprojekt-client/internal/app"
	"github.com/worldOneo/loginprojekt-client/internal/config"
	"github.com/worldOneo/loginprojekt-client/internal/logger"
)

const usage = `usage: apiclient <command> [flags]

commands:
  request <path>   send a request (-X method, -d json body)
  createuser       register a user (-u, -p)
  login            generate and store a token (-u, -p)
  logout           forget the stored token (-u)
  time             fetch server time with the stored token (-u)
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "apiclient: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := app.NewClient(cfg, sugar, logger.Default())
	if err != nil {
		logger.ErrorObj("failed to initialize client", "error", err.Error())
		return err
	}
	defer client.Close()

	cmd, rest := args[0], args[1:]
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	method := fs.StringP("method", "X", "GET", "HTTP method, sent verbatim")
	data := fs.StringP("data", "d", "", "JSON request body")
	username := fs.StringP("username", "u", "", "account name")
	password := fs.StringP("password", "p", "", "account password")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	switch cmd {
	case "request":
		if fs.NArg() != 1 {
			return errors.New("request needs exactly one path argument")
		}
		var body any
		if *data != "" {
			if !gjson.Valid(*data) {
				return errors.New("--data is not valid JSON")
			}
			body = json.RawMessage(*data)
		}
		res, err := client.Request(ctx, fs.Arg(0), *method, body)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{"status": res.StatusCode, "body": res.Value})
	case "createuser":
		if err := requireCredentials(*username, *password); err != nil {
			return err
		}
		msg, err := client.CreateUser(ctx, *username, *password)
		if err != nil {
			return err
		}
		return printJSON(out, msg)
	case "login":
		if err := requireCredentials(*username, *password); err != nil {
			return err
		}
		if err := client.Login(ctx, *username, *password); err != nil {
			return err
		}
		fmt.Fprintf(out, "token stored for %s\n", *username)
		return nil
	case "logout":
		if *username == "" {
			return errors.New("--username is required")
		}
		return client.Logout(*username)
	case "time":
		if *username == "" {
			return errors.New("--username is required")
		}
		ts, err := client.ServerTime(ctx, *username)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ts.UTC().Format(time.RFC3339))
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func requireCredentials(username, password string) error {
	if username == "" || password == "" {
		return errors.New("--username and --password are required")
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
