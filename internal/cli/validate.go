package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meterline/brazekit/internal/scenario"
)

// FileValidation is the validation outcome for one scenario file.
type FileValidation struct {
	Path   string                     `json:"path"`
	Valid  bool                       `json:"valid"`
	Errors []scenario.ValidationError `json:"errors,omitempty"`
}

// ValidationResult aggregates validation across all given files.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Check scenario documents against the structural schema and the
cross-field rules, without constructing a destination or executing the
flow. Reports every problem found, not just the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		file := FileValidation{Path: path, Valid: true}
		if _, err := scenario.Load(path); err != nil {
			var problems scenario.ValidationErrors
			if !asValidationErrors(err, &problems) {
				_ = formatter.Error(ErrCodeScenarioRead, err.Error(), nil)
				return WrapExitError(ExitCommandError, "load scenario", err)
			}
			file.Valid = false
			file.Errors = problems
			result.Valid = false
		}
		result.Files = append(result.Files, file)
	}

	return outputValidationResult(formatter, result)
}

func outputValidationResult(f *OutputFormatter, result ValidationResult) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    firstProblemCode(result),
				Message: "validation failed",
			}
		}
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		for _, file := range result.Files {
			if file.Valid {
				fmt.Fprintf(f.Writer, "✓ %s\n", file.Path)
				continue
			}
			fmt.Fprintf(f.Writer, "✗ %s\n", file.Path)
			for _, problem := range file.Errors {
				fmt.Fprintf(f.Writer, "  %s\n", problem.Error())
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func firstProblemCode(result ValidationResult) string {
	for _, file := range result.Files {
		if len(file.Errors) > 0 {
			return file.Errors[0].Code
		}
	}
	return scenario.ErrSchemaViolation
}

// asValidationErrors unwraps err into scenario validation problems.
func asValidationErrors(err error, target *scenario.ValidationErrors) bool {
	return errors.As(err, target)
}
