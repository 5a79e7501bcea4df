package main

import (
	"fmt"
	"os"
	"strconv"

	"storyboard/internal/cache"
	"storyboard/internal/config"
	"storyboard/internal/database"
	"storyboard/internal/middleware"
	"storyboard/internal/seed"
	"storyboard/internal/server"
	"storyboard/internal/service"
	"storyboard/internal/storage"

	"github.com/spf13/cobra"
)

// deps is what a subcommand runs against. close releases the connections.
type deps struct {
	srv   *server.Server
	close func()
}

type opener func() (*deps, error)

// openFromConfig connects to the database, redis and file store the server
// would use.
func openFromConfig() (*deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	middleware.InitLogger(cfg.Env, os.Stderr)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	rdb := cache.InitRedis(cfg.RedisURL)

	srv, err := server.NewServerWithDeps(cfg, db, rdb, store)
	if err != nil {
		return nil, err
	}
	return &deps{
		srv: srv,
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			if rdb != nil {
				_ = rdb.Close()
			}
		},
	}, nil
}

func newRootCommand(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "storyboardctl",
		Short:         "Storyboard operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// run opens the dependencies around fn.
	run := func(fn func(cmd *cobra.Command, d *deps, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			d, err := open()
			if err != nil {
				return err
			}
			defer d.close()
			// Events published without redis go through the hub, which must be
			// draining or publishers block once its buffer fills.
			stop := d.srv.StartHub(cmd.Context())
			defer stop()
			return fn(cmd, d, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, d *deps, _ []string) error {
				if err := database.Migrate(d.srv.DB()); err != nil {
					return err
				}
				cmd.Println("Schema is up to date")
				return nil
			}),
		},
		seedCommand(run),
		&cobra.Command{
			Use:   "token <userID>",
			Short: "Mint an access token for a user",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, d *deps, args []string) error {
				id, err := parseUserID(args[0])
				if err != nil {
					return err
				}
				if _, err := d.srv.Accounts().GetUser(cmd.Context(), id); err != nil {
					return err
				}
				tok, err := d.srv.Tokens().Issue(id)
				if err != nil {
					return err
				}
				cmd.Println(tok)
				return nil
			}),
		},
		userCommand(run, "promote", "Grant the admin role", func(cmd *cobra.Command, d *deps, id uint) error {
			return d.srv.Accounts().SetAdmin(cmd.Context(), id, true)
		}),
		userCommand(run, "demote", "Revoke the admin role", func(cmd *cobra.Command, d *deps, id uint) error {
			return d.srv.Accounts().SetAdmin(cmd.Context(), id, false)
		}),
		userCommand(run, "lock", "Suspend an account", func(cmd *cobra.Command, d *deps, id uint) error {
			return d.srv.Accounts().LockUser(cmd.Context(), service.SystemActor, id)
		}),
		userCommand(run, "unlock", "Lift a suspension", func(cmd *cobra.Command, d *deps, id uint) error {
			return d.srv.Accounts().UnlockUser(cmd.Context(), service.SystemActor, id)
		}),
		userCommand(run, "delete-user", "Delete an account and everything it owns", func(cmd *cobra.Command, d *deps, id uint) error {
			sum, err := d.srv.Accounts().DeleteUser(cmd.Context(), service.SystemActor, id)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d photos, %d boards, %d board items, %d favorites and %d reports\n",
				sum.Photos, sum.Boards, sum.BoardItems, sum.Favorites, sum.Reports)
			return nil
		}),
	)
	return root
}

type runner func(fn func(cmd *cobra.Command, d *deps, args []string) error) func(*cobra.Command, []string) error

func userCommand(run runner, name, short string, fn func(cmd *cobra.Command, d *deps, id uint) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <userID>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, d *deps, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := fn(cmd, d, id); err != nil {
				return err
			}
			cmd.Printf("%s: user %d done\n", name, id)
			return nil
		}),
	}
}

func seedCommand(run runner) *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo data",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, d *deps, _ []string) error {
			opts := seed.DefaultOptions()
			if preset != "" {
				var err error
				if opts, err = seed.LoadPreset(preset); err != nil {
					return err
				}
			}
			if err := database.Migrate(d.srv.DB()); err != nil {
				return err
			}
			sum, err := seed.NewSeeder(d.srv.DB(), seed.Services{
				Photos:     d.srv.Photos(),
				Boards:     d.srv.Boards(),
				Moderation: d.srv.Moderation(),
			}, opts).Run(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Seeded %d admins, %d users, %d photos, %d boards and %d reports\n",
				sum.Admins, sum.Users, sum.Photos, sum.Boards, sum.Reports)
			cmd.Printf("All seeded users have the password %q\n", opts.Password)
			return nil
		}),
	}
	cmd.Flags().StringVar(&preset, "preset", "", "YAML preset with seed counts")
	return cmd
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return uint(id), nil
}
