package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftloom/draftloom/pkg/backend"
	"github.com/draftloom/draftloom/pkg/canvas"
	"github.com/draftloom/draftloom/pkg/chat"
	"github.com/draftloom/draftloom/pkg/job"
	"github.com/draftloom/draftloom/pkg/notify"
)

var (
	jobApprove  bool
	jobReject   bool
	jobEdits    string
	jobSections []string
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Drive long-form generation jobs",
}

var jobRunCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Create a job and follow it to completion",
	Long: `Create a backend job from the request and consume its event stream.

Section progress is merged into a local document preview. When the
backend pauses at a human-review checkpoint, the checkpoint is shown
and the job waits for an approve/reject answer on stdin. The final
document is printed when the job completes. A failed job stops with no
retry; the only recovery is starting a new one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJob,
}

var jobResumeCmd = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Submit a review decision for a paused job",
	Args:  cobra.ExactArgs(1),
	RunE:  resumeJob,
}

func init() {
	jobRunCmd.Flags().BoolVar(&jobApprove, "approve-all", false, "approve every review checkpoint without asking")
	jobResumeCmd.Flags().BoolVar(&jobApprove, "approve", false, "approve the pending checkpoint")
	jobResumeCmd.Flags().BoolVar(&jobReject, "reject", false, "reject the pending checkpoint")
	jobResumeCmd.Flags().StringVar(&jobEdits, "edits", "", "free-text edits to apply")
	jobResumeCmd.Flags().StringSliceVar(&jobSections, "sections", nil, "updated target section list")
	jobCmd.AddCommand(jobRunCmd)
	jobCmd.AddCommand(jobResumeCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	req, err := loadRequest(args)
	if err != nil {
		return err
	}

	log := newLogger()
	cache, kvStore, err := openCache(cliCtx)
	if err != nil {
		return err
	}
	defer kvStore.Close()

	store := chat.NewStore()
	surface := &memorySurface{}
	chatID := store.CreateChat(chat.ModeStandard)

	runner := job.NewRunner(job.Config{
		Backend: newClient(cliCtx, log),
		Store:   store,
		Bridge:  canvas.NewBridge(surface),
		Cache:   cache,
		Logger:  log,
		Notifier: notify.Func(func(level notify.Level, text string) {
			style := styles.Stage
			switch level {
			case notify.LevelWarn:
				style = styles.Review
			case notify.LevelError:
				style = styles.Err
			}
			fmt.Fprintln(os.Stderr, style.Render(text))
		}),
	})

	j, err := runner.Start(cmd.Context(), chatID, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, styles.Notice.Render("job "+j.ID()+" started"))

	runDone := make(chan error, 1)
	go func() { runDone <- runner.Run(cmd.Context(), j) }()

	stdin := bufio.NewReader(os.Stdin)
	for {
		select {
		case err := <-runDone:
			if err != nil {
				return err
			}
			fmt.Println(surface.Content())
			if rat := j.Rationale(); rat != "" {
				fmt.Fprintln(os.Stderr, styles.Notice.Render("rationale: "+rat))
			}
			return nil
		default:
		}

		if j.State() != job.StateAwaitingReview {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		rec := j.Review()
		if rec == nil {
			continue
		}
		decision, err := promptDecision(stdin, rec)
		if err != nil {
			return err
		}
		if err := runner.SubmitDecision(cmd.Context(), j, decision); err != nil {
			return err
		}
	}
}

// promptDecision asks for an approve/reject answer on one checkpoint.
func promptDecision(stdin *bufio.Reader, rec *job.ReviewRecord) (*backend.Decision, error) {
	if jobApprove {
		fmt.Fprintln(os.Stderr, styles.Review.Render("checkpoint "+rec.Checkpoint+": auto-approved"))
		return &backend.Decision{Approve: true}, nil
	}

	fmt.Fprintln(os.Stderr, styles.Review.Render("checkpoint: "+rec.Checkpoint))
	if len(rec.Payload) > 0 {
		fmt.Fprintln(os.Stderr, string(rec.Payload))
	}
	fmt.Fprint(os.Stderr, "approve? [y/N/edits] ")

	line, err := stdin.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read decision: %w", err)
	}
	answer := strings.TrimSpace(line)
	switch strings.ToLower(answer) {
	case "y", "yes":
		return &backend.Decision{Approve: true}, nil
	case "", "n", "no":
		return &backend.Decision{Approve: false}, nil
	default:
		// Anything else is treated as free-text edits with approval.
		return &backend.Decision{Approve: true, Edits: answer}, nil
	}
}

func resumeJob(cmd *cobra.Command, args []string) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	if jobApprove == jobReject {
		return fmt.Errorf("pass exactly one of --approve or --reject")
	}

	client := newClient(cliCtx, newLogger())
	decision := &backend.Decision{
		Approve:  jobApprove,
		Edits:    jobEdits,
		Sections: jobSections,
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return client.Jobs.Resume(ctx, args[0], decision)
}
