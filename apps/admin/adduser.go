package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	var roles []string
	switch role {
	case "admin":
		roles = []string{user.RoleAdminOwner}
	case "teacher":
		roles = user.TeacherRoles
	case "student":
		roles = user.StudentRoles
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Name:      name,
			Username:  uname,
			Email:     email,
			Roles:     roles,
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if name != "" {
		usr.Name = name
	}
	usr.Email = email
	usr.Roles = roles
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
