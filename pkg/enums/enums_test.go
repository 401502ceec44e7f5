package enums

import "testing"

func TestParseMemberRole(t *testing.T) {
	for _, raw := range []string{"Owner", "admin", " USER "} {
		if _, err := ParseMemberRole(raw); err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
	}
	if _, err := ParseMemberRole("superuser"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	if role, _ := ParseMemberRole("admin"); role != MemberRoleAdmin {
		t.Fatalf("expected canonical Admin, got %q", role)
	}
}

func TestSetupStageOrdinals(t *testing.T) {
	for i, stage := range SetupStages {
		if stage.Ordinal() != i {
			t.Fatalf("stage %s expected ordinal %d got %d", stage, i, stage.Ordinal())
		}
	}
	if UserSetupStage("DONE").IsValid() {
		t.Fatal("unknown stage should be invalid")
	}
	if _, err := ParseUserSetupStage("complete"); err == nil {
		t.Fatal("stage parsing is case sensitive")
	}
}

func TestThemeAndSeverity(t *testing.T) {
	if _, err := ParseTheme("dark"); err != nil {
		t.Fatalf("dark should parse: %v", err)
	}
	if _, err := ParseTheme("neon"); err == nil {
		t.Fatal("neon should fail")
	}
	if _, err := ParseAlertSeverity(0); err == nil {
		t.Fatal("severity 0 is not a valid alert severity")
	}
	if s, err := ParseAlertSeverity(3); err != nil || s.String() != "critical" {
		t.Fatalf("expected critical, got %v %v", s, err)
	}
	if SensorStatus(1).String() != "Normal" {
		t.Fatal("status 1 should be Normal")
	}
}
