package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glycanlab/glycandia/pkg/config"
	"github.com/glycanlab/glycandia/pkg/core"
	"github.com/glycanlab/glycandia/pkg/reader/mslist"
)

var massesCmd = &cobra.Command{
	Use:   "masses",
	Short: "Print the isotope target m/z values for every compound",
	Long: `Masses computes the df1/df2/df3 target m/z values for every compound
in the list at each candidate charge state, using the configured adduct and
polarity. Useful for checking a compound list before a long run.`,
	RunE: printMasses,
}

func printMasses(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	calc, err := core.NewMassCalculator(cfg.Adduct, cfg.Polarity)
	if err != nil {
		return err
	}
	compounds, err := mslist.ReadFile(filepath.Join(cfg.InputPath, cfg.MSListName))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Compound\tCharge\tdf1\tdf2\tdf3")
	for _, cpd := range compounds {
		for _, z := range cfg.Charges() {
			t := calc.Targets(cpd.Composition, cpd.AddonMass, z)
			fmt.Fprintf(w, "%s\t%d\t%.5f\t%.5f\t%.5f\n",
				cpd.Label(), t.Charge, t.DF1, t.DF2, t.DF3)
		}
	}
	return nil
}
