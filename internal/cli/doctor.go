package cli

import (
	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/doctor"
	"github.com/sbxtool/sbx/internal/sandbox"
)

func newDoctorCmd(flags *globalFlags) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor [NAME]",
		Short: "Diagnose sandbox state problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
				if err := sandbox.ValidateName(name); err != nil {
					return err
				}
			}

			app, err := newAppContext(*flags)
			if err != nil {
				return err
			}
			return runDoctor(app, name, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "apply safe automatic repairs where supported")

	return cmd
}

func runDoctor(app *appContext, name string, fix bool) error {
	out := app.output
	ctx := &doctor.CheckContext{Engine: app.engine, Name: name}

	failed := false
	for _, check := range doctor.AllChecks() {
		result := check.Run(ctx)
		out.Status(check.Name(), result.Status.String())
		if result.Message != "" {
			out.Info("%s", result.Message)
		}

		if result.Status == doctor.StatusOK {
			continue
		}

		if fix && check.CanFix() {
			if err := check.Fix(ctx); err != nil {
				out.Error("fix failed: %v", err)
				failed = true
				continue
			}
			after := check.Run(ctx)
			out.Success("fixed; now %s", after.Status)
			if after.Status == doctor.StatusFail {
				failed = true
			}
			continue
		}

		if result.FixHint != "" {
			out.Info("fix: %s", result.FixHint)
		}
		if result.Status == doctor.StatusFail {
			failed = true
		}
	}

	if failed {
		return &sandbox.OperationError{Message: "doctor found failing checks"}
	}
	return nil
}
