package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, role, managerEmail, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if name = core.CleanString(name); name == "" {
		name = email
	}
	if !isRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	var managerID string
	if managerEmail != "" {
		mgr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(managerEmail, true)})
		if err != nil {
			return errors.Wrap(err, "finding manager")
		}
		managerID = mgr.ID
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	found := err == nil
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return err
	}
	if !found {
		usr = user.User{Email: email, CreatedAt: now}
	}
	usr.Name = name
	usr.Role = role
	if managerID != "" {
		usr.ManagerID = managerID
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if found {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}

func isRole(role string) bool {
	for _, r := range user.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
