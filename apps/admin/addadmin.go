package main

import (
	"time"

	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/user"
)

// addAdmin updates or creates an active admin user.User
func (cli *commandLine) addAdmin(uname, email, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		if usr, err = cli.usrRepo.GetUserByEmail(email); err != nil && err != user.ErrNotFound {
			return err
		}
	}

	usr.IsAdmin = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		now := time.Now().UTC()
		usr.Username = uname
		usr.Email = email
		usr.IsActive = true
		usr.CreatedAt = now
		usr.UpdatedAt = now
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	isActive := true
	_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	return err
}
