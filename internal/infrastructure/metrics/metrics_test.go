package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposition(t *testing.T) {
	snap := Snapshot{CommandsSent: 42, Errors: 3, DeviceCount: 2}
	m := New(func() Snapshot { return snap })

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading exposition: %v", err)
	}

	exposition := string(body)
	for _, want := range []string{
		"rims_gateway_commands_sent_total 42",
		"rims_gateway_errors_total 3",
		"rims_gateway_device_count 2",
	} {
		if !strings.Contains(exposition, want) {
			t.Errorf("exposition missing %q\n%s", want, exposition)
		}
	}
}

func TestMetricsTrackSnapshot(t *testing.T) {
	snap := Snapshot{}
	m := New(func() Snapshot { return snap })

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	scrape := func() string {
		t.Helper()
		resp, err := srv.Client().Get(srv.URL)
		if err != nil {
			t.Fatalf("scrape failed: %v", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading exposition: %v", err)
		}
		return string(body)
	}

	if got := scrape(); !strings.Contains(got, "rims_gateway_device_count 0") {
		t.Errorf("initial device_count not 0\n%s", got)
	}

	snap = Snapshot{CommandsSent: 7, DeviceCount: 3}

	if got := scrape(); !strings.Contains(got, "rims_gateway_device_count 3") {
		t.Errorf("device_count did not follow snapshot\n%s", got)
	}
	if got := scrape(); !strings.Contains(got, "rims_gateway_commands_sent_total 7") {
		t.Errorf("commands_sent_total did not follow snapshot\n%s", got)
	}
}

func TestMultipleInstancesDoNotCollide(t *testing.T) {
	// Private registries: constructing twice must not panic on
	// duplicate registration.
	a := New(func() Snapshot { return Snapshot{} })
	b := New(func() Snapshot { return Snapshot{} })

	if a.Handler() == nil || b.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
