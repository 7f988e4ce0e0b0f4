package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/session"
	"github.com/muurk/dmxbox/internal/tui"
	"github.com/muurk/dmxbox/internal/wifiform"
)

// promptValue asks for a password on the terminal instead of the command line.
const promptValue = "-"

// wifiEdits holds the set-wifi flags. Only flags the user changed are
// applied to the loaded fields.
type wifiEdits struct {
	hostName    string
	apName      string
	apSecurity  string
	apPassword  string
	apChannel   string
	join        bool
	staName     string
	staSecurity string
	staPassword string
}

var (
	edits      wifiEdits
	noVerify   bool
	noRollback bool
	retries    int
)

func init() {
	rootCmd.AddCommand(setWiFiCmd)

	f := setWiFiCmd.Flags()
	f.StringVar(&edits.hostName, "hostname", "", "Device hostname (max 15 bytes)")
	f.StringVar(&edits.apName, "ap-name", "", "Name of the access point the box broadcasts")
	f.StringVar(&edits.apSecurity, "ap-security", "", "Access point security (none, wep, wpa, wpa23, wpa3)")
	f.StringVar(&edits.apPassword, "ap-password", "", "Access point password, '-' to prompt")
	f.StringVar(&edits.apChannel, "ap-channel", "", "Access point channel (auto, 1-13)")
	f.BoolVar(&edits.join, "join", false, "Join an existing network (--join=false to stop)")
	f.StringVar(&edits.staName, "sta-name", "", "Name of the existing network to join")
	f.StringVar(&edits.staSecurity, "sta-security", "", "Existing network security (none, wep, wpa, wpa23, wpa3)")
	f.StringVar(&edits.staPassword, "sta-password", "", "Existing network password, '-' to prompt")
	f.BoolVar(&noVerify, "no-verify", false, "Skip reading the configuration back after saving")
	f.BoolVar(&noRollback, "no-rollback", false, "Keep the new configuration even if it does not read back")
	f.IntVar(&retries, "retries", 3, "Number of verification attempts")
}

// setWiFiCmd edits the WiFi configuration
var setWiFiCmd = &cobra.Command{
	Use:   "set-wifi",
	Short: "Change the device WiFi configuration",
	Long: `Load the current WiFi configuration, apply the given changes, validate
the result and save it to the device.

Fields without a flag keep their current value. Nothing is sent to the
device if validation fails; every rejected field is listed.

After saving, the configuration is read back. If it does not match, the
configuration loaded before the change is written back unless
--no-rollback is given.`,
	Example: `  # Rename the box and its access point
  dmxbox-cfg set-wifi --hostname foh --ap-name FOH-Rack

  # Join the venue network, asking for the password
  dmxbox-cfg set-wifi --join --sta-name Venue --sta-security wpa23 --sta-password -

  # Leave the venue network again
  dmxbox-cfg set-wifi --join=false`,
	RunE: runSetWiFi,
}

func runSetWiFi(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()
	t, err := resolveTarget(cmd, reg)
	if err != nil {
		return err
	}

	client := t.client()
	endpoint := &capturingEndpoint{ConfigEndpoint: client}
	sess := session.New(endpoint)
	ctx := cmd.Context()
	width := tui.TerminalWidth()

	current, err := sess.Load(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderFailure(width, failureTitle("Could not load configuration from", t.String(), err), err))
		return fmt.Errorf("failed to get configuration: %w", err)
	}

	rollback := deviceconfig.NewRollbackManager(client)
	rollback.Record(endpoint.last, "before set-wifi")

	if err := promptPasswords(cmd, &edits); err != nil {
		return err
	}

	fields, err := applyEdits(current, edits, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	fieldErrs, err := sess.Submit(ctx, fields)
	if !fieldErrs.Valid() {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderFieldErrors(width, fieldErrs))
		return fieldErrs.Err()
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderFailure(width, failureTitle("Could not save configuration to", t.String(), err), err))
		return fmt.Errorf("update failed: %w", err)
	}

	if t.Name != "" {
		reg.UpdateDeviceLastSeen(t.Name, t.Host, t.Port)
		reg.SetLastHostName(t.Name, fields.HostName)
		saveRegistry(reg)
	}

	out := cmd.OutOrStdout()
	if noVerify {
		fmt.Fprintln(out, tui.RenderSuccess(width, "Configuration saved (not verified)", tui.Detail{Key: "Device", Value: t.String()}))
		return nil
	}

	expected := wifiform.ToWire(fields)
	opts := deviceconfig.DefaultVerificationOptions()
	opts.MaxRetries = retries
	result := client.VerifyConfigurationWithRetry(ctx, &expected, opts)
	if !result.Success {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderFailure(width, "Saved configuration does not read back", result.Error))
		for _, m := range result.Mismatches {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", m)
		}
		if noRollback {
			return fmt.Errorf("configuration verification failed after %d attempts", result.Attempts)
		}
		return restorePrevious(cmd, rollback, opts, result.Attempts)
	}

	fmt.Fprintln(out, tui.RenderSuccess(width, "Configuration saved and verified",
		tui.Detail{Key: "Device", Value: t.String()},
		tui.Detail{Key: "Now", Value: expected.Summary()},
		tui.Detail{Key: "Attempts", Value: fmt.Sprint(result.Attempts)},
	))
	if fields.HostName != current.HostName {
		fmt.Fprintf(out, "\nThe box will answer as %s.local after it restarts its network.\n", fields.HostName)
	}
	return nil
}

// restorePrevious writes back the document loaded before the change. The
// returned error always reports the failed verification.
func restorePrevious(cmd *cobra.Command, rollback *deviceconfig.RollbackManager, opts *deviceconfig.VerificationOptions, attempts int) error {
	width := tui.TerminalWidth()
	snapshot := rollback.GetLatestSnapshot()
	if snapshot == nil {
		return fmt.Errorf("configuration verification failed after %d attempts", attempts)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "\nRestoring the previous configuration...")
	restored := rollback.RollbackToSnapshot(cmd.Context(), snapshot, opts)
	if !restored.Success {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderFailure(width, "Could not restore the previous configuration", restored.Error))
		return fmt.Errorf("configuration verification failed after %d attempts and rollback failed: %w", attempts, restored.Error)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderSuccess(width, "Previous configuration restored",
		tui.Detail{Key: "Now", Value: snapshot.Config.Summary()},
	))
	return fmt.Errorf("configuration verification failed after %d attempts, previous configuration restored", attempts)
}

// applyEdits returns current with every changed flag applied. changed
// reports whether a flag was set on the command line.
func applyEdits(current wifiform.FormFields, e wifiEdits, changed func(string) bool) (wifiform.FormFields, error) {
	f := current

	if changed("hostname") {
		f.HostName = e.hostName
	}
	if changed("ap-name") {
		f.AccessPoint.Name = e.apName
	}
	if changed("ap-security") {
		st, err := parseSecurityType(e.apSecurity)
		if err != nil {
			return f, fmt.Errorf("--ap-security: %w", err)
		}
		f.AccessPoint.Security.Type = st
	}
	if changed("ap-password") {
		f.AccessPoint.Security.Password = e.apPassword
	}
	if changed("ap-channel") {
		f.AccessPoint.Channel = wifiform.Channel(strings.ToLower(strings.TrimSpace(e.apChannel)))
	}

	existing := f.ExistingNetwork
	if existing == nil {
		existing = wifiform.Disabled{}
	}
	if changed("join") {
		existing = wifiform.SetExistingNetworkEnabled(existing, e.join)
	}
	if changed("sta-name") || changed("sta-security") || changed("sta-password") {
		name, sec := existing.Network()
		if changed("sta-name") {
			name = e.staName
		}
		if changed("sta-security") {
			st, err := parseSecurityType(e.staSecurity)
			if err != nil {
				return f, fmt.Errorf("--sta-security: %w", err)
			}
			sec.Type = st
		}
		if changed("sta-password") {
			sec.Password = e.staPassword
		}
		if existing.IsEnabled() {
			existing = wifiform.Enabled{Name: name, Security: sec}
		} else {
			existing = wifiform.Disabled{Name: name, Security: sec}
		}
	}
	f.ExistingNetwork = existing

	return f, nil
}

func parseSecurityType(s string) (wifiform.SecurityType, error) {
	st := wifiform.SecurityType(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		names := make([]string, len(wifiform.SecurityTypes))
		for i, t := range wifiform.SecurityTypes {
			names[i] = string(t)
		}
		return "", fmt.Errorf("unknown security type %q (use %s)", s, strings.Join(names, ", "))
	}
	return st, nil
}

// promptPasswords replaces '-' password flags with input read from the
// terminal.
func promptPasswords(cmd *cobra.Command, e *wifiEdits) error {
	in := newPasswordReader(cmd.InOrStdin())
	for _, p := range []struct {
		label string
		value *string
	}{
		{"Access point password", &e.apPassword},
		{"Existing network password", &e.staPassword},
	} {
		if *p.value != promptValue {
			continue
		}
		pw, err := in.read(cmd.ErrOrStderr(), p.label)
		if err != nil {
			return err
		}
		*p.value = pw
	}
	return nil
}

var errNoInput = errors.New("no password entered")

// passwordReader reads without echo from a terminal and line by line from
// anything else.
type passwordReader struct {
	fd    int
	tty   bool
	lines *bufio.Reader
}

func newPasswordReader(in io.Reader) *passwordReader {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &passwordReader{fd: int(f.Fd()), tty: true}
	}
	return &passwordReader{lines: bufio.NewReader(in)}
}

func (r *passwordReader) read(out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	defer fmt.Fprintln(out)

	if r.tty {
		pw, err := term.ReadPassword(r.fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := r.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", errNoInput
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printConfig(w io.Writer, format, device string, fields wifiform.FormFields, wire *deviceconfig.WireConfig) error {
	switch format {
	case "wire":
		if wire != nil {
			_, err := fmt.Fprint(w, wire.FormatDetailed())
			return err
		}
	case "compact":
		if wire != nil {
			_, err := fmt.Fprint(w, wire.FormatCompact())
			return err
		}
	case "json":
		if wire != nil {
			return writeJSON(w, wire)
		}
	}
	_, err := fmt.Fprintln(w, tui.RenderForm(tui.TerminalWidth(), device, fields))
	return err
}
