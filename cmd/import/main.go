// Command import rebuilds the member register from two
// semicolon-separated export files. The existing database file is
// renamed aside after confirmation, then groups, persons, memberships
// and coordinators are recreated from the sources.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rollcall/internal/backup"
	groupservice "rollcall/internal/group/service"
	"rollcall/internal/importer"
	membershipservice "rollcall/internal/membership/service"
	personservice "rollcall/internal/person/service"
	"rollcall/internal/platform/logger"
	"rollcall/internal/storage/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, importer.ErrCancelled) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath      string
		personsPath string
		groupsPath  string
		assumeYes   bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Rebuild the member register from export files",
		Long: "Rebuild the member register from two semicolon-separated export files.\n" +
			"The current database is renamed to .old (or .old.N) first, so the\n" +
			"previous register stays recoverable.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), dbPath, personsPath, groupsPath, assumeYes, logLevel)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "rollcall.db", "database file to rebuild")
	cmd.Flags().StringVar(&personsPath, "persons", "", "persons source file (required)")
	cmd.Flags().StringVar(&groupsPath, "groups", "", "groups source file (required)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the backup confirmation prompt")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("persons")
	_ = cmd.MarkFlagRequired("groups")
	return cmd
}

func runImport(ctx context.Context, dbPath, personsPath, groupsPath string, assumeYes bool, logLevel string) error {
	log := logger.New(logLevel)

	confirm := backup.AlwaysConfirm
	if !assumeYes {
		confirm = promptConfirm
	}
	snap := backup.New(dbPath, confirm, backup.WithLogger(log))

	// The store opens lazily in Init, after the snapshot has moved any
	// existing database aside, so the rebuild starts from an empty file.
	store := sqlite.New(dbPath)
	defer store.Close()

	personSvc := personservice.New(store, personservice.WithLogger(log))
	membershipSvc := membershipservice.New(store.Memberships(), store, store.Groups(),
		membershipservice.WithLogger(log))
	groupSvc := groupservice.New(store.Groups(), store, membershipSvc,
		groupservice.WithLogger(log))

	imp := importer.New(snap, store, personSvc, groupSvc, membershipSvc,
		importer.WithLogger(log))

	return imp.Run(ctx, personsPath, groupsPath, func(line string) {
		fmt.Println(line)
	})
}

// promptConfirm asks on stdin whether the current database may be
// renamed aside.
func promptConfirm(context.Context) (bool, error) {
	fmt.Print("De huidige database wordt hernoemd naar .old. Doorgaan? [j/N] ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "j" || answer == "ja" || answer == "y" || answer == "yes", nil
}
