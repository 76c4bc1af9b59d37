package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/draftloom/draftloom/pkg/backend"
	"github.com/draftloom/draftloom/pkg/canvas"
	"github.com/draftloom/draftloom/pkg/chat"
	"github.com/draftloom/draftloom/pkg/notify"
	"github.com/draftloom/draftloom/pkg/session"
)

var (
	chatModels  []string
	chatExcerpt string
	chatAppend  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Run one multi-model generation turn",
	Long: `Run one generation turn against the configured backend.

The prompt comes from the argument or from a request file (-f). With
more than one model the responses are kept side by side and, when the
context enables it, consolidated into a single answer. A leading
"@model" token in the prompt routes the turn to that model only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringSliceVar(&chatModels, "models", nil, "models to fan the turn out to (default: context models)")
	chatCmd.Flags().StringVar(&chatExcerpt, "excerpt", "", "improve this excerpt instead of writing the document")
	chatCmd.Flags().BoolVar(&chatAppend, "append", false, "append the result after existing document content")
}

// loadRequest builds the generation request from -f and/or flags.
func loadRequest(args []string) (*backend.GenerationRequest, error) {
	var req backend.GenerationRequest
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("read request file: %w", err)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parse request file: %w", err)
		}
	}
	if len(args) > 0 {
		req.Prompt = args[0]
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("no prompt: pass one as an argument or in the request file")
	}
	if len(chatModels) > 0 {
		req.Models = chatModels
	}
	return &req, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	req, err := loadRequest(args)
	if err != nil {
		return err
	}
	if len(req.Models) == 0 {
		req.Models = cliCtx.Models
	}

	log := newLogger()
	cache, kvStore, err := openCache(cliCtx)
	if err != nil {
		return err
	}
	defer kvStore.Close()

	store := chat.NewStore()
	surface := &memorySurface{}
	mode := chat.ModeStandard
	if len(req.Models) > 1 {
		mode = chat.ModeMultiModel
	}
	chatID := store.CreateChat(mode)

	mgr := session.NewManager(session.Config{
		Backend:     newClient(cliCtx, log),
		Store:       store,
		Bridge:      canvas.NewBridge(surface),
		Cache:       cache,
		Logger:      log,
		Consolidate: cliCtx.Consolidate,
		Notifier: notify.Func(func(level notify.Level, text string) {
			style := styles.Notice
			switch level {
			case notify.LevelWarn:
				style = styles.Review
			case notify.LevelError:
				style = styles.Err
			}
			fmt.Fprintln(os.Stderr, style.Render(text))
		}),
	})

	opts := &session.TurnOptions{Excerpt: chatExcerpt}
	if chatAppend {
		opts.FinalizeMode = canvas.FinalizeAppend
	}
	res, err := mgr.RunTurn(cmd.Context(), chatID, req, opts)
	if err != nil {
		return err
	}

	printTurn(store, chatID, res)
	return nil
}

// printTurn renders the turn's messages, one block per model plus the
// consolidated answer when present.
func printTurn(store *chat.Store, chatID string, res *session.TurnResult) {
	for _, msg := range store.TurnMessages(chatID, res.TurnID) {
		if msg.Role != chat.RoleAssistant {
			continue
		}
		label := msg.Meta.Model
		if msg.Meta.Consolidated {
			label = "consolidated"
		}
		fmt.Println(styles.Model.Render("── " + label + " " + strings.Repeat("─", max(0, 40-len(label)))))
		if msg.Thinking != "" && verbose {
			fmt.Println(styles.Dim.Render(msg.Thinking))
		}
		fmt.Println(msg.Content)
		if msg.Meta.Suggestion != "" {
			fmt.Println(styles.Review.Render("suggested replacement:"))
			fmt.Println(msg.Meta.Suggestion)
		}
		if msg.Meta.Usage != nil && verbose {
			fmt.Println(styles.Dim.Render(fmt.Sprintf("tokens: %d prompt, %d completion",
				msg.Meta.Usage.PromptTokens, msg.Meta.Usage.CompletionTokens)))
		}
		fmt.Println()
	}
}

// memorySurface is the CLI's stand-in for an editor canvas.
type memorySurface struct {
	content string
}

func (s *memorySurface) Content() string     { return s.content }
func (s *memorySurface) SetContent(c string) { s.content = c }
