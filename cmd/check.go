package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/chain"
)

var (
	checkAction string
	checkFormat string
)

var checkCmd = &cobra.Command{
	Use:   "check <schema>...",
	Short: "Check whether schemas may be modified or deleted",
	Long: `Check schemas against the version chain. A schema that was deployed in
any version is locked and can be neither modified nor deleted.

Examples:
  schemalock check User                      # May User be modified?
  schemalock check User Post --action delete
  schemalock check User --format json
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := chain.Action(checkAction)
		if action != chain.ActionModify && action != chain.ActionDelete {
			return fmt.Errorf("invalid action %q (expected modify or delete)", checkAction)
		}

		c, err := readChain()
		if err != nil {
			return err
		}
		if c == nil {
			c = chain.New(time.Now())
		}

		requests := make([]chain.LockRequest, 0, len(args))
		for _, name := range args {
			requests = append(requests, chain.LockRequest{Name: name, Action: action})
		}

		var res chain.LockCheckResult
		if len(requests) == 1 {
			res = chain.CheckLockViolation(c, requests[0].Name, action)
		} else {
			res = chain.CheckBulkLockViolation(c, requests)
		}

		if checkFormat == "json" {
			if err := printJSON(res); err != nil {
				return err
			}
		} else if res.Allowed {
			color.Green("🔓 %s allowed for: %v", action, args)
		} else {
			color.Red("🔐 %s", res.Reason)
		}

		if !res.Allowed {
			return errors.New("schemas are locked")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkAction, "action", "a", string(chain.ActionModify), "Action to check (modify, delete)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text, json)")
}
