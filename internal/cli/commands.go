package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NishanthN27/Final-Year/graph"
	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/graph/model"
	"github.com/NishanthN27/Final-Year/internal/config"
	"github.com/NishanthN27/Final-Year/interview"
)

// skipAnswer is submitted when the user skips a question.
const skipAnswer = "I don't know."

// withApp opens the app for the duration of fn.
func (r *runner) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

type startFlags struct {
	resume  string
	job     string
	user    string
	session string
}

func (f *startFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.resume, "resume", "r", "", "resume text file (- for stdin)")
	cmd.Flags().StringVarP(&f.job, "job", "j", "", "job description text file")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "user id for personalization")
	cmd.Flags().StringVar(&f.session, "session", "", "session id (generated when empty)")
}

func (f *startFlags) request(stdin io.Reader) (interview.StartRequest, error) {
	resume, err := readText(f.resume, stdin)
	if err != nil {
		return interview.StartRequest{}, err
	}
	job, err := readText(f.job, stdin)
	if err != nil {
		return interview.StartRequest{}, err
	}
	if strings.TrimSpace(resume) == "" && strings.TrimSpace(job) == "" {
		return interview.StartRequest{}, errors.New("at least one of --resume or --job is required")
	}
	return interview.StartRequest{
		SessionID:          f.session,
		UserID:             f.user,
		ResumeText:         resume,
		JobDescriptionText: job,
	}, nil
}

// readText reads a file, stdin for "-", or nothing for "".
func readText(path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func (r *runner) newStartCmd() *cobra.Command {
	var (
		flags  startFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session and print the first question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.interviewer.Start(ctx, req)
				if err != nil {
					return sessionError(res, err)
				}
				a.logger.Info("session started", zap.String("session", res.State.SessionID))
				return writeResult(cmd.OutOrStdout(), res, format)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or json")
	return cmd
}

func (r *runner) newAnswerCmd() *cobra.Command {
	var (
		file   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "answer <session> [answer]",
		Short: "Answer the current question of a paused session",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var answer string
			switch {
			case len(args) == 2:
				answer = args[1]
			case file != "":
				text, err := readText(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				answer = text
			default:
				return errors.New("an answer argument or --file is required")
			}
			return r.withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.interviewer.Answer(ctx, args[0], answer)
				if err != nil {
					return sessionError(res, err)
				}
				return writeResult(cmd.OutOrStdout(), res, format)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the answer from a file (- for stdin)")
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or json")
	return cmd
}

func (r *runner) newShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Print the stored state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.interviewer.Snapshot(ctx, args[0])
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), res, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or json")
	return cmd
}

func (r *runner) newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored session ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app) error {
				ids, err := a.sessions.List(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func (r *runner) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.interviewer.Delete(ctx, args[0]); err != nil {
					return err
				}
				a.logger.Info("session deleted", zap.String("session", args[0]))
				return nil
			})
		},
	}
}

func (r *runner) newGraphCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the interview graph as a Mermaid flowchart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Rendering never calls a model, so none is configured.
			offline := *r
			offline.deps.Models = func(context.Context, config.LLMConfig) (model.ChatModel, model.ChatModel, []func() error, error) {
				return &model.MockChatModel{Err: errors.New("graph rendering does not call models")}, nil, nil, nil
			}
			cfg := *r.cfg
			if session == "" {
				cfg.Store.Driver = "memory"
			}
			cfg.Metrics.Addr = ""
			cfg.Tracing.Endpoint = ""
			offline.cfg = &cfg

			return offline.withApp(cmd, func(ctx context.Context, a *app) error {
				var current []string
				if session != "" {
					res, err := a.interviewer.Snapshot(ctx, session)
					if err != nil {
						return err
					}
					current = append(current, res.Next...)
					current = append(current, res.Pending...)
				}
				fmt.Fprint(cmd.OutOrStdout(), a.interviewer.Mermaid(current...))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "highlight where this session stands")
	return cmd
}

func (r *runner) newInteractiveCmd() *cobra.Command {
	var (
		flags startFlags
		trace bool
	)
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Run a whole session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, a *app) error {
				return r.interact(ctx, cmd.OutOrStdout(), a, req, trace)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&trace, "trace", false, "print the nodes each answer ran through")
	return cmd
}

// interact asks questions until the session ends or the user quits. A
// session left early stays PAUSED and can be continued with answer.
func (r *runner) interact(ctx context.Context, w io.Writer, a *app, req interview.StartRequest, trace bool) error {
	res, err := a.interviewer.Start(ctx, req)
	if err != nil {
		return sessionError(res, err)
	}
	sessionID := res.State.SessionID
	defer a.events.Clear(sessionID)

	for res.Status == graph.StatusPaused {
		writeText(w, res)
		answer, err := r.readAnswer()
		if errors.Is(err, errQuit) {
			fmt.Fprintf(w, "\nSession %s saved. Continue with: %s answer %s \"...\"\n", sessionID, config.App, sessionID)
			return nil
		}
		if err != nil {
			return err
		}
		from := res.Step + 1
		res, err = a.interviewer.Answer(ctx, sessionID, answer)
		if err != nil {
			return sessionError(res, err)
		}
		if trace {
			writeTrace(w, a.events.GetHistoryWithFilter(sessionID, emit.HistoryFilter{Msg: emit.MsgNodeEnd, MinStep: &from}))
		}
	}
	writeText(w, res)
	return nil
}

// readAnswer asks until a non-empty answer, a skip or a quit.
func (r *runner) readAnswer() (string, error) {
	for {
		answer, err := r.deps.Prompter.Ask("Your answer")
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(answer) != "" {
			return answer, nil
		}
		choice, err := r.deps.Prompter.Choose("The answer is empty", []string{PromptAnswerAgain, PromptSkip, PromptSaveAndQuit})
		if err != nil {
			return "", err
		}
		switch choice {
		case PromptSkip:
			return skipAnswer, nil
		case PromptSaveAndQuit:
			return "", errQuit
		}
	}
}

// sessionError adds the session position to engine errors.
func sessionError(res interview.Result, err error) error {
	if res.State.SessionID == "" {
		return err
	}
	return fmt.Errorf("session %s (%s, step %d): %w", res.State.SessionID, res.Status, res.Step, err)
}
