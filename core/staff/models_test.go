package staff

import "testing"

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleTeacher, CapReviewReports, false},
		{RoleTeacher, CapManageDeadlines, false},
		{RoleTeacher, CapIrreversibleReset, false},

		{RoleCoordinator, CapReviewReports, true},
		{RoleCoordinator, CapIrreversibleReset, false},
		{RoleCoordinator, CapManageDeadlines, false},
		{RoleCoordinator, CapModerateActivity, false},

		{RoleAdministrator, CapReviewReports, true},
		{RoleAdministrator, CapIrreversibleReset, true},
		{RoleAdministrator, CapManagePeriods, true},
		{RoleAdministrator, CapManageDeadlines, true},
		{RoleAdministrator, CapManageStaff, true},
		{RoleAdministrator, CapModerateActivity, true},

		{Role("BOGUS"), CapReviewReports, false},
	}
	for _, tt := range tests {
		if got := tt.role.Can(tt.cap); got != tt.want {
			t.Errorf("%s.Can(%s) = %t; want %t", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestRoleIsValid(t *testing.T) {
	for _, r := range AllRoles {
		if !r.IsValid() {
			t.Errorf("%s.IsValid() = false; want true", r)
		}
	}
	if Role("DEAN").IsValid() {
		t.Error(`Role("DEAN").IsValid() = true; want false`)
	}
}

func TestPasswordHashing(t *testing.T) {
	var m Staff
	if err := m.SetPassword("s3cr3t!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := m.CheckPassword("s3cr3t!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err := m.CheckPassword("wrong"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
