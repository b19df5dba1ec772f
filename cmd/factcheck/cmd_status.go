package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/maxradov/propacondom-app/internal/poller"
	"github.com/maxradov/propacondom-app/internal/workflow"
	"github.com/spf13/cobra"
)

func newStatusCommand(g *globalOptions) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the state of a background task",
		Long: `Show the state of a background analysis or verification task.

With --wait, the task is polled until it succeeds or fails, printing each new
progress message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			taskID := args[0]
			out := cmd.OutOrStdout()
			if !wait {
				st, err := e.client.TaskStatus(cmd.Context(), taskID)
				if err != nil {
					return err
				}
				return writeStatus(out, taskID, st)
			}

			progress, stop := progressWriter(cmd)
			polls := poller.NewSession(e.client,
				poller.WithInterval(g.interval(e.cfg)),
				poller.WithEventLog(e.events),
				poller.WithProgressWriter(progress),
			)
			o, err := polls.Start(cmd.Context(), taskID).Wait(cmd.Context())
			polls.Cancel()
			stop()
			if err != nil {
				return err
			}
			return writeOutcome(out, taskID, o)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the task finishes")

	return cmd
}

func writeStatus(w io.Writer, taskID string, st *models.TaskStatus) error {
	switch st.Status {
	case models.TaskSuccess:
		payload, err := models.DecodePayload(st.Result)
		if err != nil {
			var perr *models.PayloadError
			if errors.As(err, &perr) {
				return &workflow.TaskFailedError{TaskID: taskID, Reason: perr.Message}
			}
			return err
		}
		return writeOutcome(w, taskID, poller.Outcome{State: poller.Succeeded, Payload: payload})
	case models.TaskFailure:
		return &workflow.TaskFailedError{TaskID: taskID, Reason: st.FailureReason()}
	default:
		if _, err := fmt.Fprintf(w, "Task %s: %s\n", taskID, st.Status); err != nil {
			return err
		}
		if msg := st.Progress().StatusMessage; msg != "" {
			_, err := fmt.Fprintln(w, msg)
			return err
		}
		return nil
	}
}

func writeOutcome(w io.Writer, taskID string, o poller.Outcome) error {
	switch o.State {
	case poller.Succeeded:
		p := o.Payload
		switch p.Kind {
		case models.KindSelection:
			_, err := fmt.Fprintf(w, "Task %s: SUCCESS, analysis %s is waiting for claim selection (%d candidates)\n",
				taskID, p.AnalysisID, len(p.Selection.ClaimsForSelection))
			return err
		default:
			_, err := fmt.Fprintf(w, "Task %s: SUCCESS, analysis %s\n", taskID, p.AnalysisID)
			return err
		}
	case poller.Failed:
		if o.Err != nil {
			return o.Err
		}
		return &workflow.TaskFailedError{TaskID: taskID, Reason: o.Reason}
	default:
		if o.Err != nil {
			return o.Err
		}
		return poller.ErrCancelled
	}
}
