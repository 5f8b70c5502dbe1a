package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
	authUC "github.com/fastygo/taskdesk/usecase/auth"
)

// userFile is the document accepted by 'taskctl users import'.
type userFile struct {
	Users []domain.User `yaml:"users"`
}

// usersCmd implements the 'taskctl users' command group.
func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Provision and inspect user accounts",
	}
	cmd.AddCommand(usersImportCmd(), usersListCmd(), usersDeleteCmd())
	return cmd
}

// usersImportCmd implements 'taskctl users import'.
func usersImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create or update users from a YAML file",
		Example: `  taskctl users import -f users.yaml
  cat users.yaml | taskctl users import -f -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, closeIn, err := openInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			users, err := parseUsers(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			backend, release, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer release()

			resolver := authUC.New(backend.Users, backend.Principals, nil)
			n, err := importUsers(ctx, backend.Users, resolver, users)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d user(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file to import (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// usersListCmd implements 'taskctl users list'.
func usersListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			backend, release, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer release()

			users, err := backend.Users.List(ctx)
			if err != nil {
				return err
			}
			return writeUsers(cmd.OutOrStdout(), users, format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format: table or yaml")
	return cmd
}

// usersDeleteCmd implements 'taskctl users delete'.
func usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete users that no task references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, release, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer release()

			resolver := authUC.New(backend.Users, backend.Principals, nil)
			n, err := deleteUsers(ctx, backend.Users, resolver, args)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d user(s)\n", n)
			return err
		},
	}
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// parseUsers decodes and checks a user file. A missing role means a regular
// user.
func parseUsers(r io.Reader) ([]domain.User, error) {
	var doc userFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("user file is empty")
		}
		return nil, fmt.Errorf("parse user file: %w", err)
	}

	seen := make(map[string]int, len(doc.Users))
	for i := range doc.Users {
		u := &doc.Users[i]
		u.Name = strings.TrimSpace(u.Name)
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Role == "" {
			u.Role = domain.RoleUser
		}

		switch {
		case u.Name == "":
			return nil, fmt.Errorf("user #%d: name is required", i+1)
		case u.Email == "":
			return nil, fmt.Errorf("user #%d: email is required", i+1)
		case !u.Role.Valid():
			return nil, fmt.Errorf("user #%d: %q is not a valid role", i+1, u.Role)
		}
		if prev, dup := seen[u.Email]; dup {
			return nil, fmt.Errorf("user #%d: email %s already used by user #%d", i+1, u.Email, prev)
		}
		seen[u.Email] = i + 1
	}
	return doc.Users, nil
}

type principalForgetter interface {
	Forget(ctx context.Context, userID string) error
}

// importUsers upserts every user and drops their cached principals so role
// changes apply to the next request.
func importUsers(ctx context.Context, repo repository.UserRepository, cache principalForgetter, users []domain.User) (int, error) {
	for i := range users {
		u := users[i]
		if err := repo.Upsert(ctx, &u); err != nil {
			return i, fmt.Errorf("user %s: %w", u.Email, err)
		}
		if err := cache.Forget(ctx, u.ID); err != nil {
			return i + 1, fmt.Errorf("user %s: invalidate cached principal: %w", u.Email, err)
		}
	}
	return len(users), nil
}

// deleteUsers removes the users in order and stops at the first failure. A
// deleted user's cached principal is dropped so its token stops resolving.
func deleteUsers(ctx context.Context, repo repository.UserRepository, cache principalForgetter, ids []string) (int, error) {
	for i, id := range ids {
		if err := repo.Delete(ctx, id); err != nil {
			return i, fmt.Errorf("user %s: %w", id, err)
		}
		if err := cache.Forget(ctx, id); err != nil {
			return i + 1, fmt.Errorf("user %s: invalidate cached principal: %w", id, err)
		}
	}
	return len(ids), nil
}

func writeUsers(w io.Writer, users []domain.User, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(userFile{Users: users}); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
