package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"photocat/internal/app"
	"photocat/internal/catalog"
	"photocat/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var verbose bool

// newApp reads the config and opens the catalog. The caller must defer a.Close().
func newApp(cmd *cobra.Command, args []string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cmd.Context(), cfg, cmd.Name(), args, app.Options{Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp opens the catalog, runs fn and closes the catalog, reporting the
// first error.
func withApp(cmd *cobra.Command, args []string, fn func(a *app.App) error) (err error) {
	a, err := newApp(cmd, args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func parseID(s string) (catalog.ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return catalog.InvalidID, fmt.Errorf("invalid id %q", s)
	}
	return catalog.ID(n), nil
}

// readPassphrase prompts on the terminal without echo. Piped input is read
// one line at a time.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var stdinReader = bufio.NewReader(os.Stdin)

var rootCmd = &cobra.Command{
	Use:          "photocat",
	Short:        "Photo catalog",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		catalogID := uuid.New().String()
		cfg := config.NewConfig(catalogID, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Catalog ID:  %s\n", catalogID)
		fmt.Printf("Catalog Dir: %s\n", cfg.CatalogDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Catalog ID:  %s\n", cfg.CatalogID)
		fmt.Printf("Catalog Dir: %s\n", cfg.CatalogDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s\n", cfg.Database.Type)
		fmt.Printf("Sidecars:    write=%t backup=%s\n", cfg.Xmp.WriteSidecars, cfg.Xmp.Backup)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			st := a.Status()
			switch {
			case st.Created:
				fmt.Printf("Catalog created (schema version %d)\n", st.Version)
			case st.NeedsUpgrade():
				fmt.Printf("Catalog exists at schema version %d; run 'photocat upgrade' to migrate to %d\n", st.Version, st.Current)
			default:
				fmt.Printf("Catalog already initialized (schema version %d)\n", st.Version)
			}
			return nil
		})
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the catalog schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			st := a.Status()
			if !st.NeedsUpgrade() {
				fmt.Printf("Catalog is up to date (schema version %d)\n", st.Version)
				return nil
			}
			if err := a.Upgrade(cmd.Context()); err != nil {
				return fmt.Errorf("upgrade failed: %w", err)
			}
			fmt.Printf("Catalog upgraded from version %d to %d\n", st.Version, st.Current)
			return nil
		})
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Add a directory and its images to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			res, err := a.Import(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Printf("Imported %d file(s) into %s", len(res.Added), res.Folder.Path)
			if len(res.Skipped) > 0 {
				fmt.Printf(", %d already present", len(res.Skipped))
			}
			fmt.Println()

			failed := make([]string, 0, len(res.Failed))
			for p := range res.Failed {
				failed = append(failed, p)
			}
			sort.Strings(failed)
			for _, p := range failed {
				fmt.Fprintf(os.Stderr, "failed: %s: %v\n", p, res.Failed[p])
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d file(s) could not be imported", len(failed))
			}
			return nil
		})
	},
}

// folders command
var foldersCmd = &cobra.Command{
	Use:   "folders [PATH]",
	Short: "List folders, or the files of one folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			if len(args) == 1 {
				files, err := a.FolderContent(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Printf("%6d  %-10s  %s  %s\n", f.ID, f.Type, strings.Repeat("*", f.Rating), f.Name)
				}
				return nil
			}

			folders, err := a.Folders(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range folders {
				path := f.Path
				if f.IsTrash() {
					path = "(" + f.Name + ")"
				}
				fmt.Printf("%6d  %s\n", f.ID, path)
			}
			return nil
		})
	},
}

// keywords command
var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List keywords with file counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			kws, err := a.Keywords(cmd.Context())
			if err != nil {
				return err
			}
			if len(kws) == 0 {
				fmt.Println("No keywords.")
				return nil
			}
			for _, kc := range kws {
				fmt.Printf("%6d  %-30s  %d\n", kc.Keyword.ID, kc.Keyword.Keyword, kc.Count)
			}
			return nil
		})
	},
}

// labels command
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			labels, err := a.Labels(cmd.Context())
			if err != nil {
				return err
			}
			for _, l := range labels {
				fmt.Printf("%6d  %-20s  %s\n", l.ID, l.Name, l.Color)
			}
			return nil
		})
	},
}

var labelsAddCmd = &cobra.Command{
	Use:   "add NAME COLOR",
	Short: "Create a label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			id, err := a.AddLabel(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Label %d created\n", id)
			return nil
		})
	},
}

var labelsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, args, func(a *app.App) error {
			return a.DeleteLabel(cmd.Context(), id)
		})
	},
}

// albums commands
var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List albums",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			albums, err := a.Albums(cmd.Context())
			if err != nil {
				return err
			}
			for _, al := range albums {
				fmt.Printf("%6d  %-30s  %5d file(s)\n", al.Album.ID, al.Album.Name, al.Count)
			}
			return nil
		})
	},
}

var albumParent string

var albumsAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create an album",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var parent catalog.ID
		if albumParent != "" {
			id, err := parseID(albumParent)
			if err != nil {
				return err
			}
			parent = id
		}
		return withApp(cmd, args, func(a *app.App) error {
			album, err := a.AddAlbum(cmd.Context(), args[0], parent)
			if err != nil {
				return err
			}
			fmt.Printf("Album %d created\n", album.ID)
			return nil
		})
	},
}

var albumsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an album",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, args, func(a *app.App) error {
			return a.DeleteAlbum(cmd.Context(), id)
		})
	},
}

var albumsAddFilesCmd = &cobra.Command{
	Use:   "add-files ALBUM_ID FILE_ID...",
	Short: "Add files to an album",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		albumID, err := parseID(args[0])
		if err != nil {
			return err
		}
		fileIDs := make([]catalog.ID, 0, len(args)-1)
		for _, arg := range args[1:] {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			fileIDs = append(fileIDs, id)
		}
		return withApp(cmd, args, func(a *app.App) error {
			return a.AddToAlbum(cmd.Context(), albumID, fileIDs)
		})
	},
}

var albumsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "List the files of an album",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, args, func(a *app.App) error {
			files, err := a.AlbumContent(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Printf("%6d  %-10s  %s  %s\n", f.ID, f.Type, strings.Repeat("*", f.Rating), f.Path)
			}
			return nil
		})
	},
}

// metadata commands
var metadataCmd = &cobra.Command{
	Use:   "metadata FILE_ID",
	Short: "Show the metadata of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, args, func(a *app.App) error {
			md, err := a.Metadata(cmd.Context(), id)
			if err != nil {
				return err
			}
			if md == nil {
				return fmt.Errorf("file %d: %w", id, catalog.ErrFileNotFound)
			}
			all := catalog.AllProperties()
			props := md.Properties(all...)
			for _, idx := range all {
				if v, ok := props[idx]; ok {
					fmt.Printf("%-20s  %s\n", idx, v)
				}
			}
			return nil
		})
	},
}

var setMetadataCmd = &cobra.Command{
	Use:   "set-metadata FILE_ID PROPERTY VALUE",
	Short: "Change one metadata property of a file",
	Long: "Change one metadata property of a file. An empty VALUE clears the property.\n" +
		"Keywords are comma separated; dates use RFC 3339.",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, args, func(a *app.App) error {
			return a.SetMetadata(cmd.Context(), id, args[1], args[2])
		})
	},
}

var syncXmpCmd = &cobra.Command{
	Use:   "sync-xmp",
	Short: "Write pending XMP sidecars",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			pending, err := a.PendingXmp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.SyncXmp(cmd.Context()); err != nil {
				return fmt.Errorf("sidecar sync failed: %w", err)
			}
			fmt.Printf("Processed %d pending sidecar(s)\n", len(pending))
			return nil
		})
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			pass, err := readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
			confirm, err := readPassphrase("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if pass != confirm {
				return fmt.Errorf("passphrases do not match")
			}
			if err := a.SetupKeys(pass); err != nil {
				return err
			}
			fmt.Println("Encryption keys created.")
			return nil
		})
	},
}

// snapshot command
var snapshotVault string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store a copy of the catalog in a vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			name, err := a.Snapshot(cmd.Context(), snapshotVault)
			if err != nil {
				return fmt.Errorf("snapshot failed: %w", err)
			}
			fmt.Printf("Snapshot stored: %s\n", name)
			return nil
		})
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog snapshots in a vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			names, err := a.Snapshots(cmd.Context(), snapshotVault)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No snapshots.")
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		})
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore NAME DEST",
	Short: "Restore a catalog snapshot to a new file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.App) error {
			var pass string
			if s := a.Encryptor().Suffix(); s != "" && strings.HasSuffix(args[0], s) {
				var err error
				if pass, err = readPassphrase("Passphrase: "); err != nil {
					return err
				}
			}
			if err := a.RestoreSnapshot(cmd.Context(), snapshotVault, args[0], args[1], pass); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Printf("Snapshot %s restored to %s\n", args[0], args[1])
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	labelsCmd.AddCommand(labelsAddCmd)
	labelsCmd.AddCommand(labelsDeleteCmd)

	albumsAddCmd.Flags().StringVar(&albumParent, "parent", "", "Parent album id")
	albumsCmd.AddCommand(albumsAddCmd)
	albumsCmd.AddCommand(albumsDeleteCmd)
	albumsCmd.AddCommand(albumsAddFilesCmd)
	albumsCmd.AddCommand(albumsShowCmd)

	keysCmd.AddCommand(keysInitCmd)

	snapshotCmd.PersistentFlags().StringVar(&snapshotVault, "vault", "", "Vault name (default: first configured vault)")
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(albumsCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(setMetadataCmd)
	rootCmd.AddCommand(syncXmpCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(snapshotCmd)
}
