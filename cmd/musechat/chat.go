package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/meetingmuse/musechat/internal/eventbus"
	"github.com/meetingmuse/musechat/internal/format"
	"github.com/meetingmuse/musechat/mention"
	"github.com/meetingmuse/musechat/schema"
)

func newChatCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			bus := eventbus.New(logger)
			client, _, err := buildClient(ctx, cfgPath, bus)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Connect(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderer := format.NewPlainRenderer()
			events, cancel := bus.Subscribe()
			defer cancel()
			go printEvents(out, renderer, events)

			fmt.Fprintln(out, "Type a message. Commands: /reconnect /status /quit")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				switch line {
				case "/quit", "/exit":
					return nil
				case "/reconnect":
					if err := client.Connect(ctx); err != nil {
						logger.Warn("reconnect failed", "err", err)
					}
					continue
				case "/status":
					fmt.Fprintln(out, renderer.FormatStatus(client.Connected()))
					continue
				}

				composer := client.Composer()
				resolveMentions(composer, renderer, out, scanner, line)
				display, _ := composer.Display()
				transmit := composer.Submit()
				composer.Close()
				if display != line {
					fmt.Fprintln(out, format.UserMarker+display)
				}
				client.Send(transmit)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	return cmd
}

// printEvents renders bus events. User echoes are suppressed unless the
// send failed; the terminal already shows the typed line.
func printEvents(out io.Writer, renderer *format.PlainRenderer, events <-chan eventbus.Event) {
	for event := range events {
		switch event.Type {
		case eventbus.EventMessage:
			msg := event.Message
			if msg.Kind == schema.KindUser && msg.Status != schema.StatusError {
				continue
			}
			for _, line := range renderer.FormatMessage(msg) {
				fmt.Fprintln(out, line)
			}
		case eventbus.EventStatus:
			fmt.Fprintln(out, renderer.FormatStatus(event.Connected))
		}
	}
}

// resolveMentions walks the composed line left to right, offering a
// contact picker for each @token. Skipped tokens stay plain text.
func resolveMentions(composer *mention.Resolver, renderer *format.PlainRenderer, out io.Writer, scanner *bufio.Scanner, line string) {
	composer.SetText(line, len([]rune(line)))
	from := 0
	for {
		display, _ := composer.Display()
		text := []rune(display)
		caret := nextMentionCaret(text, from)
		if caret == -1 {
			return
		}
		composer.SetText(display, caret)
		tok, ok := composer.ActiveToken()
		if !ok || tok.Query == "" {
			from = caret
			continue
		}
		candidates := awaitCandidates(composer)
		if len(candidates) == 0 {
			composer.Dismiss()
			from = caret
			continue
		}
		fmt.Fprintf(out, "@%s matches:\n", tok.Query)
		for _, l := range renderer.FormatCandidates(candidates) {
			fmt.Fprintln(out, l)
		}
		fmt.Fprint(out, "pick a contact (enter to skip): ")
		if !scanner.Scan() {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(candidates) {
			composer.Dismiss()
			from = caret
			continue
		}
		if err := composer.Accept(candidates[n-1]); err != nil {
			composer.Dismiss()
			from = caret
			continue
		}
		_, from = composer.Display()
	}
}

// nextMentionCaret returns the caret position just past the first @word at
// or after from, or -1 when none remains.
func nextMentionCaret(text []rune, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		if i > 0 && !unicode.IsSpace(text[i-1]) {
			continue
		}
		j := i + 1
		for j < len(text) && !unicode.IsSpace(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		return j
	}
	return -1
}

// awaitCandidates waits out the lookup debounce for the active token.
func awaitCandidates(composer *mention.Resolver) []schema.Contact {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !composer.Loading() {
			return composer.Candidates()
		}
		time.Sleep(20 * time.Millisecond)
	}
	return composer.Candidates()
}
