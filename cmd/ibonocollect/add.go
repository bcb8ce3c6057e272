package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ibonocollect/collect"
	"ibonocollect/internal/utils"
)

func newAddCmd(newApp func() (*App, error)) *cobra.Command {
	var (
		contextNote string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "add <english> <ibono>",
		Short: "Save one translation pair",
		Long: `Save one English–Ibọnọ translation pair.

Offline saves succeed immediately and sync later. If the pair already
exists (ignoring case and surrounding whitespace) nothing is written and
the existing entry is shown; if only the English phrase exists with a
different translation, pass --force to save an additional translation.

Examples:
  ibonocollect add "hello" "mma"
  ibonocollect add "good morning" "emem ubọk" --context "greeting, before noon"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.service.Save(context.Background(), collect.SaveInput{
				SourceText:           args[0],
				TargetText:           args[1],
				Context:              contextNote,
				AllowSourceDuplicate: force,
			})
			if err != nil {
				if errors.Is(err, collect.ErrNotAuthenticated) {
					return utils.ErrSignInRequired(err)
				}
				return err
			}

			if result.IsDuplicate {
				existing := result.Existing
				if result.Match == collect.MatchExact {
					fmt.Printf("Already collected: %q → %q\n", existing.SourceText, existing.TargetText)
				} else {
					fmt.Printf("%q already has translation %q (use --force to save another)\n",
						existing.SourceText, existing.TargetText)
				}
				return nil
			}

			if result.Record.Synced() {
				fmt.Println("Saved.")
			} else {
				fmt.Println("Saved offline; will sync when connection returns.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextNote, "context", "c", "", "context note for the phrase")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when the source phrase already has a different translation")

	return cmd
}
