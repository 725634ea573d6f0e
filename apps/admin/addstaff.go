package main

import (
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/staff"
)

// addStaff updates or creates a staff member.
func (cli *commandLine) addStaff(name, email string, role staff.Role, pwd string) error {
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	if !role.IsValid() {
		return errors.Errorf("unknown role %q", role)
	}

	member, err := cli.staffSvc.GetByEmail(email)
	if err != nil {
		if errors.Cause(err) != staff.ErrNotFound {
			return err
		}
		_, err = cli.staffSvc.Create(staff.NewStaff{
			Name:            name,
			Email:           email,
			Role:            role,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
		return err
	}

	active := true
	_, err = cli.staffSvc.Update(member.ID, staff.UpdateStaff{
		Name:            name,
		Email:           email,
		Role:            role,
		IsActive:        &active,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return err
}
