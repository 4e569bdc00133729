package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookit-dev/bookit/pkg/client"
)

// APIFlags select the appointment API endpoint for CRUD commands.
type APIFlags struct {
	URL     string
	Timeout time.Duration
}

func (f *APIFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.URL, "api-url", "http://127.0.0.1:8080", "base URL of the appointment server")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", 10*time.Second, "request timeout")
}

func (f *APIFlags) newClient(cmd *cobra.Command) *client.Client {
	return client.New(client.Config{
		BaseURL: f.URL,
		Timeout: f.Timeout,
		Logger:  loggerFrom(cmd.Context()),
	})
}

func createAppointmentCommands(_ *GlobalFlags) []*cobra.Command {
	return []*cobra.Command{
		createCreateCommand(),
		createListCommand(),
		createClearCommand(),
	}
}

func createCreateCommand() *cobra.Command {
	api := &APIFlags{}
	var (
		title string
		at    string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			startsAt, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("parse --at: %w", err)
			}
			a, err := api.newClient(cmd).Create(cmd.Context(), client.Appointment{
				Title:    title,
				StartsAt: startsAt,
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			printJSON(a)
			return nil
		},
	}
	api.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "appointment title")
	cmd.Flags().StringVar(&at, "at", "", "start time, RFC 3339 (e.g. 2026-09-01T14:30:00Z)")
	cmd.Flags().StringVar(&notes, "notes", "", "optional notes")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func createListCommand() *cobra.Command {
	api := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := api.newClient(cmd).List(cmd.Context())
			if err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	api.register(cmd)
	return cmd
}

func createClearCommand() *cobra.Command {
	api := &APIFlags{}
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(os.Stdin, os.Stderr, "Delete ALL appointments?") {
				fmt.Println("aborted")
				return nil
			}
			n, err := api.newClient(cmd).Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d appointment(s)\n", n)
			return nil
		},
	}
	api.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
