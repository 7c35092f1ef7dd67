package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/youruser/certapp/internal/records"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Issue certificates to every holder in a roster CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		setID, _ := cmd.Flags().GetInt64("set")
		courseID, _ := cmd.Flags().GetInt64("course")
		path, _ := cmd.Flags().GetString("csv")
		if setID <= 0 || courseID <= 0 || path == "" {
			return fmt.Errorf("--set, --course and --csv required")
		}

		holders, err := records.LoadNamesCSV(path)
		if err != nil {
			return err
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		certs, err := records.NewRepository(db).ImportCertificates(cmd.Context(), setID, courseID, holders)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UUID\tNAME\tVERIFY")
		for _, c := range certs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.UUID, c.Name, records.VerifyURL(cfg.Certificates.FrontendURL, c.UUID))
		}
		return w.Flush()
	},
}

func init() {
	importCmd.Flags().Int64("set", 0, "certificate set id")
	importCmd.Flags().Int64("course", 0, "course id")
	importCmd.Flags().String("csv", "", "roster CSV with a name column")
}
