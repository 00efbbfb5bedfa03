package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiongozi/core/user"
	"github.com/trezcool/kiongozi/storage/database/sqlxrepo"
	"github.com/trezcool/kiongozi/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := testutil.PrepareDB(t)
	return &commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		out:     io.Discard,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) {
		if pwd == "" {
			return nil, nil
		}
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, _ *sqlx.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_teams", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(tt.args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_root(t *testing.T) {
	cli := setup(t)

	assert.Equal(t, errHelp, cli.run(nil))

	err := cli.run([]string{"lol"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "lol"`)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe@test.cd", "mdr", user.RoleManager, "", true)

	tests := []cliTest{
		{name: "no email", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "--email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--email", "lol@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "--email", usr.Email}, pwd: "Qw3!rty9Zx"},
		{name: "reset (email is cleaned)", args: []string{"resetpassword", "--email", " AWE@test.cd "}, pwd: "Lm4@o9Pq2w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(tt.args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "failed to update password")
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	ctx := context.Background()
	cli := setup(t)
	mgr := testutil.CreateUser(t, cli.usrRepo, "Jane", "jane@test.cd", "mdr", user.RoleManager, "", true)

	tests := []cliTest{
		{name: "no email", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "--email", "root@test.cd"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "--email", "root@test.cd", "--role", "boss"}, pwd: "pwd", wantErrStr: `unknown role "boss"`},
		{name: "unknown manager", args: []string{"adduser", "--email", "bob@test.cd", "--role", "member", "--manager", "nope@test.cd"}, pwd: "pwd", wantErrStr: "finding manager: user not found"},
		{name: "admin", args: []string{"adduser", "--email", " Root@Test.cd "}, pwd: "Qw3!rty9Zx"},
		{name: "member", args: []string{"adduser", "--name", "Bob", "--email", "bob@test.cd", "--role", "member", "--manager", mgr.Email}, pwd: "Qw3!rty9Zx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(tt.args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}

	root, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "root@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, "root@test.cd", root.Name)
	assert.Equal(t, user.RoleAdmin, root.Role)
	assert.True(t, root.IsActive)
	assert.NoError(t, root.CheckPassword("Qw3!rty9Zx"))

	bob, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "bob@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", bob.Name)
	assert.Equal(t, mgr.ID, bob.ManagerID)

	// existing users are updated in place
	mockPassword("Zt4!pWn8sQ")
	require.NoError(t, cli.run([]string{"adduser", "--email", "bob@test.cd", "--role", "manager"}))
	updated, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "bob@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, updated.ID)
	assert.Equal(t, user.RoleManager, updated.Role)
	assert.Equal(t, mgr.ID, updated.ManagerID)
	assert.NoError(t, updated.CheckPassword("Zt4!pWn8sQ"))
}
