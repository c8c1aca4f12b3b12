package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbonduro/housecheck/internal/checklist"
	"github.com/vbonduro/housecheck/internal/db"
	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/store"
)

var seedForce bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage checklist templates",
}

var templatesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Publish the built-in templates",
	Long: `Publish the built-in property-check and home-check templates as the
active version of their check type. Check types that already have an active
template are skipped unless --force is given, in which case a new version is
published and the previous one is deactivated.`,
	Example: `  housecheck templates seed
  housecheck templates seed --force`,
	RunE: runTemplatesSeed,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published template versions",
	RunE:  runTemplatesList,
}

func init() {
	templatesSeedCmd.Flags().BoolVar(&seedForce, "force", false, "publish even if an active template exists")
	templatesCmd.AddCommand(templatesSeedCmd)
	templatesCmd.AddCommand(templatesListCmd)
	RootCmd.AddCommand(templatesCmd)
}

func runTemplatesSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	templates := store.NewTemplateStore(database)
	out := cmd.OutOrStdout()
	for _, checkType := range []string{domain.CheckTypeProperty, domain.CheckTypeHome} {
		if !seedForce {
			active, err := templates.GetActive(ctx, checkType)
			if err != nil {
				return err
			}
			if active != nil {
				fmt.Fprintf(out, "%s: version %d already active, skipping\n", checkType, active.Version)
				continue
			}
		}

		tpl, err := templates.Publish(ctx, checklist.Fallback(checkType))
		if err != nil {
			return fmt.Errorf("failed to publish %s: %w", checkType, err)
		}
		fmt.Fprintf(out, "%s: published version %d (%d items)\n", checkType, tpl.Version, tpl.ItemCount())
	}
	return nil
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	templates, err := store.NewTemplateStore(database).List(cmd.Context())
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates published. Run 'housecheck templates seed'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK TYPE\tVERSION\tACTIVE\tNAME\tCREATED")
	for _, tpl := range templates {
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\n", tpl.CheckType, tpl.Version, tpl.Active, tpl.Name, tpl.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
