package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siphor/siphor/internal/domain"
)

func init() {
	rootCmd.AddCommand(bankCmd)
	bankCmd.AddCommand(bankDepositCmd)
	bankCmd.AddCommand(bankWithdrawCmd)

	bankDepositCmd.Flags().Bool("term", false, "Lock the deposit for 30 days at 5% interest")
}

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the point bank",
	Long: `The bank trades day score for saved points. A deposit writes a paired
deduction on today's board; a withdrawal writes a paired gain. Term deposits
lock the points until maturity.`,
	RunE: runBankState,
}

func runBankState(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	state, err := d.Bank.State()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Demand balance: %d\n", state.Demand)
	if len(state.Fixed) == 0 {
		return nil
	}
	fmt.Fprintf(os.Stdout, "Term deposits (%d principal):\n", state.TermTotal())
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, dep := range state.Fixed {
		fmt.Fprintf(w, "  %s\t%d\tmatures %s (%d days)\tpays %d\n",
			dep.ID, dep.Amount, dep.MaturityDate, dep.DaysLeft(todayKey()), dep.MaturedValue())
	}
	return w.Flush()
}

func parseAmount(arg string) (int64, error) {
	amount, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("amount must be a positive integer, got %q", arg)
	}
	return amount, nil
}

var bankDepositCmd = &cobra.Command{
	Use:   "deposit AMOUNT",
	Short: "Deposit points from today's score into the bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		mode := domain.DepositDemand
		if term, _ := cmd.Flags().GetBool("term"); term {
			mode = domain.DepositTerm
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		board, err := d.Ledger.BankDeposit(todayKey(), amount, mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deposited %d (%s). Day score: %+d\n",
			amount, mode, domain.DayScore(board))
		return nil
	},
}

var bankWithdrawCmd = &cobra.Command{
	Use:   "withdraw AMOUNT",
	Short: "Withdraw points from the demand balance onto today's board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		board, err := d.Ledger.BankWithdraw(todayKey(), amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Withdrew %d. Day score: %+d\n",
			amount, domain.DayScore(board))
		return nil
	},
}
