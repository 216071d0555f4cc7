package cli

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/service"
)

func newChatCmd(opts *options) *cobra.Command {
	var minDelay, maxDelay time.Duration

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the waste management assistant",
		Long: `Talk to the waste management assistant as the current user.

Type a question and press enter. Commands:
  /help    list every quick reply
  /qr N    send quick reply number N
  /quit    leave the chat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			id, ok := sess.CurrentIdentity(cmd.Context())
			if !ok {
				return errNotLoggedIn
			}

			delay := service.DelayRange{Min: sess.cfg.Assistant.MinDelay, Max: sess.cfg.Assistant.MaxDelay}
			if cmd.Flags().Changed("min-delay") {
				delay.Min = minDelay
			}
			if cmd.Flags().Changed("max-delay") {
				delay.Max = maxDelay
			}
			if delay.Max < delay.Min {
				return fmt.Errorf("--max-delay %s is below --min-delay %s", delay.Max, delay.Min)
			}

			var rng *rand.Rand
			if seed := sess.cfg.Assistant.Seed; seed != 0 {
				rng = rand.New(rand.NewPCG(seed, seed))
			}
			dispatcher := service.NewDispatcher(rng)
			conv := service.NewConversation(id.Role, service.ConversationConfig{
				Responder: dispatcher,
				Delay:     delay,
				Log:       sess.log,
			})
			conv.Open()
			defer conv.End()

			replies := make(chan domain.Message, 16)
			unsubscribe := conv.Subscribe(func(m domain.Message) {
				if m.Sender == domain.SenderAssistant {
					replies <- m
				}
			})
			defer unsubscribe()

			return runChat(cmd, chatState{
				identity:   id,
				dispatcher: dispatcher,
				conv:       conv,
				replies:    replies,
			})
		},
	}

	cmd.Flags().DurationVar(&minDelay, "min-delay", service.DefaultDelay.Min, "Shortest simulated typing delay")
	cmd.Flags().DurationVar(&maxDelay, "max-delay", service.DefaultDelay.Max, "Longest simulated typing delay")
	return cmd
}

type chatState struct {
	identity   domain.Identity
	dispatcher *service.Dispatcher
	conv       *service.Conversation
	replies    <-chan domain.Message
}

func runChat(cmd *cobra.Command, st chatState) error {
	out := cmd.OutOrStdout()
	preview, all := st.dispatcher.Suggestions(st.identity.Role)

	fmt.Fprintln(out, headerStyle.Render(st.dispatcher.SupportLabel(st.identity.Role)))
	for _, m := range st.conv.Transcript() {
		printMessage(out, m)
	}
	fmt.Fprintln(out, hintStyle.Render("Try: "+strings.Join(preview, " | ")+"  (/help for more, /quit to leave)"))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		text := line

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			printQuickReplies(out, all)
			continue
		case strings.HasPrefix(line, "/qr"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/qr")))
			if err != nil || n < 1 || n > len(all) {
				fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("pick a quick reply between 1 and %d", len(all))))
				continue
			}
			text = all[n-1]
			fmt.Fprintf(out, "%s %s\n", userStyle.Render("You:"), text)
		}

		if _, err := st.conv.Submit(text); err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintln(out, hintStyle.Render("Assistant is typing..."))

		select {
		case m := <-st.replies:
			printMessage(out, m)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
	return scanner.Err()
}

func printMessage(w io.Writer, m domain.Message) {
	who := userStyle.Render("You:")
	if m.Sender == domain.SenderAssistant {
		who = assistantStyle.Render("Assistant:")
	}
	fmt.Fprintf(w, "%s %s\n", who, m.Text)
}

func printQuickReplies(w io.Writer, all []string) {
	for i, q := range all {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(strconv.Itoa(i+1)+"."), q)
	}
}
