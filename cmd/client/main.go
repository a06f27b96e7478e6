// Command client is a terminal client for the summarization API.
//
//	client register -username alice -email alice@example.com [-full-name "Alice"] [-role user]
//	client login -username alice
//	client summarize [-token TOKEN] [-text "..."]
//
// summarize reads the text from stdin when -text is empty.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/asimzz/text-summarization-system/internal/config"
	"github.com/asimzz/text-summarization-system/internal/handler/dto"
)

const usage = `usage: client <command> [flags]

commands:
  register   create an account
  login      obtain an access token
  summarize  summarize text with an access token
`

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(context.Background(), cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, cfg *config.ClientConfig, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	c := &apiClient{
		baseURL: cfg.APIBaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}

	var err error
	switch args[0] {
	case "register":
		err = registerCmd(ctx, c, args[1:], stdout, stderr)
	case "login":
		err = loginCmd(ctx, c, args[1:], stdout, stderr)
	case "summarize":
		err = summarizeCmd(ctx, c, cfg.Token, args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func registerCmd(ctx context.Context, c *apiClient, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "username")
	fullName := fs.String("full-name", "", "display name")
	email := fs.String("email", "", "email address")
	role := fs.String("role", "", "role: user or admin")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("-username and -email are required")
	}

	pw, err := passwordFlagOrPrompt(*password, stderr)
	if err != nil {
		return err
	}

	var resp dto.RegisterResponse
	err = c.post(ctx, "/register", "", dto.RegisterRequest{
		Username: *username,
		FullName: *fullName,
		Password: pw,
		Email:    *email,
		Role:     *role,
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, resp.Result)
	return nil
}

func loginCmd(ctx context.Context, c *apiClient, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("-username is required")
	}

	pw, err := passwordFlagOrPrompt(*password, stderr)
	if err != nil {
		return err
	}

	var resp dto.TokenResponse
	if err := c.post(ctx, "/login", "", dto.LoginRequest{Username: *username, Password: pw}, &resp); err != nil {
		return err
	}
	fmt.Fprintln(stdout, resp.AccessToken)
	return nil
}

func summarizeCmd(ctx context.Context, c *apiClient, envToken string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", envToken, "access token (defaults to SUMMARIZER_TOKEN)")
	text := fs.String("text", "", "text to summarize (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return errors.New("an access token is required: pass -token or set SUMMARIZER_TOKEN")
	}

	input := *text
	if input == "" {
		var err error
		if input, err = readText(stdin); err != nil {
			return err
		}
	}
	if input == "" {
		return errors.New("no text to summarize")
	}

	var resp dto.SummaryResponse
	if err := c.post(ctx, "/summarize", *token, dto.SummarizeRequest{Text: input}, &resp); err != nil {
		return err
	}
	fmt.Fprintln(stdout, resp.SummaryText)
	return nil
}

func passwordFlagOrPrompt(flagValue string, stderr io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pw, err := readPassword("Password: ", stderr)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}

// apiError is a non-2xx response from the API.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Detail, e.Status)
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func (c *apiClient) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.Unmarshal(data, &e)
		return &apiError{Status: resp.StatusCode, Detail: e.Detail}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
