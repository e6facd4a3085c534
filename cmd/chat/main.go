package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/footchat/footchat/internal/app"
	"github.com/footchat/footchat/internal/config"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/footchat/footchat/internal/usecase"
)

// chat is an interactive terminal client for the ask pipeline. It shares the
// full wiring with the API server, minus the HTTP listener.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Terminal session: keep structured logs out of the conversation unless
	// debugging is explicitly requested.
	logger := logging.NewNop()
	if strings.EqualFold(strings.TrimSpace(os.Getenv("CHAT_DEBUG")), "true") {
		logger = logging.NewJSON(cfg.LogLevel)
	}
	logging.SetDefault(logger)

	application, err := app.Build(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build app: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go application.RunWarmup(ctx, cfg)

	fmt.Println("Ask me about football: standings, fixtures, match events, player stats, head-to-head.")
	fmt.Println("Type 'quit' to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if isQuitCommand(question) {
			break
		}

		answer, err := application.Answers.Ask(ctx, question)
		if err != nil {
			fmt.Println(replyForError(err))
			continue
		}

		fmt.Println(answer.Text)
	}

	fmt.Println("Bye!")
}

func isQuitCommand(text string) bool {
	switch strings.ToLower(text) {
	case "quit", "exit", "q", "bye":
		return true
	default:
		return false
	}
}

func replyForError(err error) string {
	switch {
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return "The football data service is not responding right now. Please try again in a moment."
	case errors.Is(err, usecase.ErrInvalidInput):
		return fmt.Sprintf("I could not use that question: %v.", err)
	default:
		return "Something went wrong on my side. Please try again."
	}
}
