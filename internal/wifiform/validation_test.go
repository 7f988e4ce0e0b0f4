package wifiform

import (
	"strings"
	"testing"
)

func validFields() FormFields {
	return FormFields{
		HostName: "dmxbox",
		AccessPoint: AccessPointFields{
			Name:     "dmxbox-ap",
			Security: SecuritySelection{Type: SecurityWPA23, Password: "apsecret1"},
			Channel:  ChannelAuto,
		},
		ExistingNetwork: Disabled{},
	}
}

func TestValidateValid(t *testing.T) {
	if errs := Validate(validFields()); !errs.Valid() {
		t.Fatalf("expected valid, got %v", errs)
	}
	if Validate(validFields()).Err() != nil {
		t.Error("Err() should be nil for valid fields")
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*FormFields)
		wantPath string
		wantCode ErrorCode
	}{
		{
			name:     "empty hostname",
			mutate:   func(f *FormFields) { f.HostName = "" },
			wantPath: PathHostName,
			wantCode: CodeRequired,
		},
		{
			name:     "hostname too long",
			mutate:   func(f *FormFields) { f.HostName = strings.Repeat("h", 16) },
			wantPath: PathHostName,
			wantCode: CodeTooLong,
		},
		{
			name:     "hostname of 15 multi-byte characters",
			mutate:   func(f *FormFields) { f.HostName = strings.Repeat("é", 15) },
			wantPath: PathHostName,
			wantCode: CodeTooLong,
		},
		{
			name:     "empty ap name",
			mutate:   func(f *FormFields) { f.AccessPoint.Name = "" },
			wantPath: PathAccessPointName,
			wantCode: CodeRequired,
		},
		{
			name:     "ap name too long",
			mutate:   func(f *FormFields) { f.AccessPoint.Name = strings.Repeat("n", 33) },
			wantPath: PathAccessPointName,
			wantCode: CodeTooLong,
		},
		{
			name: "wpa password too short",
			mutate: func(f *FormFields) {
				f.AccessPoint.Security = SecuritySelection{Type: SecurityWPA, Password: "short"}
			},
			wantPath: PathAccessPointPassword,
			wantCode: CodeTooShort,
		},
		{
			name: "wep password missing",
			mutate: func(f *FormFields) {
				f.AccessPoint.Security = SecuritySelection{Type: SecurityWEP}
			},
			wantPath: PathAccessPointPassword,
			wantCode: CodeRequired,
		},
		{
			name: "wpa3 password too long",
			mutate: func(f *FormFields) {
				f.AccessPoint.Security = SecuritySelection{Type: SecurityWPA3, Password: strings.Repeat("p", 64)}
			},
			wantPath: PathAccessPointPassword,
			wantCode: CodeTooLong,
		},
		{
			name: "unknown security type",
			mutate: func(f *FormFields) {
				f.AccessPoint.Security = SecuritySelection{Type: "wpa4", Password: "password1"}
			},
			wantPath: PathAccessPointSecurityType,
			wantCode: CodeInvalidValue,
		},
		{
			name:     "channel out of set",
			mutate:   func(f *FormFields) { f.AccessPoint.Channel = "14" },
			wantPath: PathAccessPointChannel,
			wantCode: CodeInvalidValue,
		},
		{
			name: "enabled network without name",
			mutate: func(f *FormFields) {
				f.ExistingNetwork = Enabled{Security: SecuritySelection{Type: SecurityNone}}
			},
			wantPath: PathExistingNetworkName,
			wantCode: CodeRequired,
		},
		{
			name: "enabled network short password",
			mutate: func(f *FormFields) {
				f.ExistingNetwork = Enabled{Name: "Home", Security: SecuritySelection{Type: SecurityWPA23, Password: "1234567"}}
			},
			wantPath: PathExistingNetworkPassword,
			wantCode: CodeTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)

			errs := Validate(f)
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			got, ok := errs[tt.wantPath]
			if !ok {
				t.Fatalf("no error at %s, got %v", tt.wantPath, errs.Paths())
			}
			if got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
			if got.Path != tt.wantPath || got.Message == "" {
				t.Errorf("malformed error %+v", got)
			}
		})
	}
}

func TestValidateBoundaries(t *testing.T) {
	f := validFields()
	f.HostName = strings.Repeat("h", 15)
	f.AccessPoint.Name = strings.Repeat("n", 32)
	f.AccessPoint.Security = SecuritySelection{Type: SecurityWPA, Password: strings.Repeat("p", 8)}
	f.ExistingNetwork = Enabled{
		Name:     "x",
		Security: SecuritySelection{Type: SecurityWPA3, Password: strings.Repeat("p", 63)},
	}

	if errs := Validate(f); !errs.Valid() {
		t.Errorf("boundary values should be valid, got %v", errs)
	}

	// seven two-byte characters plus one ASCII byte fill the buffer exactly
	f.HostName = strings.Repeat("é", 7) + "h"
	if errs := Validate(f); !errs.Valid() {
		t.Errorf("15-byte hostname should be valid, got %v", errs)
	}
}

func TestValidateOpenNetworkIgnoresPassword(t *testing.T) {
	// {type: none} with no password
	f := validFields()
	f.AccessPoint.Security = SecuritySelection{Type: SecurityNone}
	if errs := Validate(f); !errs.Valid() {
		t.Errorf("open network without password should be valid, got %v", errs)
	}

	// any leftover password is ignored
	f.AccessPoint.Security.Password = "x"
	if errs := Validate(f); !errs.Valid() {
		t.Errorf("open network password should be ignored, got %v", errs)
	}
}

func TestValidateShortWPAPassword(t *testing.T) {
	f := validFields()
	f.AccessPoint.Security = SecuritySelection{Type: SecurityWPA, Password: "short"}

	errs := Validate(f)
	fe, ok := errs[PathAccessPointPassword]
	if !ok {
		t.Fatalf("expected password error, got %v", errs)
	}
	if fe.Code != CodeTooShort || fe.Limit != MinPasswordLength {
		t.Errorf("got %+v", fe)
	}
}

func TestValidateDisabledNetworkNotChecked(t *testing.T) {
	f := validFields()
	f.ExistingNetwork = Disabled{Name: "", Security: SecuritySelection{Type: "garbage", Password: "x"}}
	if errs := Validate(f); !errs.Valid() {
		t.Errorf("disabled network should not be validated, got %v", errs)
	}

	f.ExistingNetwork = nil
	if errs := Validate(f); !errs.Valid() {
		t.Errorf("nil network should count as disabled, got %v", errs)
	}
}

func TestValidateAccumulates(t *testing.T) {
	f := validFields()
	f.HostName = ""
	f.AccessPoint.Name = ""

	errs := Validate(f)
	paths := errs.Paths()
	if len(paths) != 2 || paths[0] != PathAccessPointName || paths[1] != PathHostName {
		t.Fatalf("paths = %v, want both hostName and accessPoint.name", paths)
	}

	f.AccessPoint.Security = SecuritySelection{Type: SecurityWPA}
	f.ExistingNetwork = Enabled{Security: SecuritySelection{Type: SecurityWEP, Password: "abc"}}
	if got := len(Validate(f)); got != 5 {
		t.Errorf("expected 5 errors, got %d: %v", got, Validate(f))
	}
}

func TestFieldErrorsError(t *testing.T) {
	f := validFields()
	f.HostName = ""
	f.AccessPoint.Name = ""

	err := Validate(f).Err()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "hostName: hostname is required") ||
		!strings.Contains(msg, "accessPoint.name: network name is required") {
		t.Errorf("unexpected message %q", msg)
	}
	if strings.Index(msg, "accessPoint.name") > strings.Index(msg, "hostName") {
		t.Errorf("paths should be sorted: %q", msg)
	}
}
