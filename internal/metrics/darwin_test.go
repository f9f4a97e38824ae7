package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gnet "github.com/shirou/gopsutil/v3/net"
)

// fakeRunner serves canned command output keyed by "name arg1 arg2...".
type fakeRunner struct {
	outputs map[string]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name
	for _, a := range args {
		key += " " + a
	}
	out, ok := r.outputs[key]
	if !ok {
		return nil, fmt.Errorf("command %q not stubbed", key)
	}
	return []byte(out), nil
}

const vmStatOutput = `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                               100000.
Pages active:                             300000.
Pages inactive:                           200000.
Pages speculative:                         50000.
Pages throttled:                               0.
Pages wired down:                         150000.
Pages purgeable:                           20000.
"Translation faults":                  987654321.
Pages occupied by compressor:             200000.
Pages stored in compressor:               600000.
`

func TestParseVMStat(t *testing.T) {
	compressed, err := parseVMStat(vmStatOutput)
	if err != nil {
		t.Fatalf("parseVMStat: %v", err)
	}
	// total = 100000+300000+200000+50000+150000+200000 = 1000000
	if !floatEq(compressed, 0.2, 1e-9) {
		t.Errorf("compressed = %v, want 0.2", compressed)
	}
}

func TestParseVMStat_Empty(t *testing.T) {
	if _, err := parseVMStat(""); !errors.Is(err, ErrParse) {
		t.Errorf("empty vm_stat should be ErrParse, got %v", err)
	}
}

func TestParseVMStat_NoCompressor(t *testing.T) {
	content := "Pages free: 500000.\nPages active: 500000.\n"
	compressed, err := parseVMStat(content)
	if err != nil {
		t.Fatalf("parseVMStat: %v", err)
	}
	if compressed != 0 {
		t.Errorf("compressed = %v, want 0 when compressor line missing", compressed)
	}
}

func TestDarwinFDUsage(t *testing.T) {
	s := NewDarwinSource()
	s.runner = &fakeRunner{outputs: map[string]string{
		"sysctl -n kern.num_files": "6144\n",
		"sysctl -n kern.maxfiles":  "245760\n",
	}}

	usage, err := s.FDUsage(context.Background())
	if err != nil {
		t.Fatalf("FDUsage: %v", err)
	}
	if !floatEq(usage, 6144.0/245760.0, 1e-9) {
		t.Errorf("FDUsage = %v, want %v", usage, 6144.0/245760.0)
	}
}

func TestDarwinFDUsage_CommandMissing(t *testing.T) {
	s := NewDarwinSource()
	s.runner = &fakeRunner{outputs: map[string]string{}}

	if _, err := s.FDUsage(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("unstubbed sysctl should be ErrUnavailable, got %v", err)
	}
}

func TestDarwinSysctl_Malformed(t *testing.T) {
	s := NewDarwinSource()
	s.runner = &fakeRunner{outputs: map[string]string{
		"sysctl -n kern.num_files": "not-a-number\n",
	}}

	if _, err := s.sysctlUint(context.Background(), "kern.num_files"); !errors.Is(err, ErrParse) {
		t.Errorf("malformed sysctl output should be ErrParse, got %v", err)
	}
}

func TestDarwinFDUsage_ZeroLimit(t *testing.T) {
	s := NewDarwinSource()
	s.runner = &fakeRunner{outputs: map[string]string{
		"sysctl -n kern.num_files": "6144\n",
		"sysctl -n kern.maxfiles":  "0\n",
	}}

	if _, err := s.FDUsage(context.Background()); !errors.Is(err, ErrParse) {
		t.Errorf("zero maxfiles should be ErrParse, got %v", err)
	}
}

func TestDropRatioFromCounters(t *testing.T) {
	counters := []gnet.IOCountersStat{
		{Name: "lo0", PacketsRecv: 900000, PacketsSent: 900000, Dropin: 0, Dropout: 0},
		{Name: "en0", PacketsRecv: 8000, PacketsSent: 2000, Dropin: 15, Dropout: 5},
		{Name: "en1"}, // idle, must not count
	}

	got, ok := dropRatioFromCounters(counters)
	if !ok {
		t.Fatal("expected a ratio from en0")
	}
	// Only en0: 20 dropped over 10000 packets. Loopback's huge clean
	// counters must not dilute this to ~0.
	if !floatEq(got, 20.0/10000.0, 1e-9) {
		t.Errorf("drop ratio = %v, want %v", got, 20.0/10000.0)
	}
}

func TestDropRatioFromCounters_LoopbackOnly(t *testing.T) {
	counters := []gnet.IOCountersStat{
		{Name: "lo0", PacketsRecv: 5000, PacketsSent: 5000},
	}
	if _, ok := dropRatioFromCounters(counters); ok {
		t.Error("loopback-only traffic should report no ratio")
	}
}

func TestDarwinPlatform(t *testing.T) {
	if got := NewDarwinSource().Platform(); got != "darwin" {
		t.Errorf("Platform() = %q, want darwin", got)
	}
}
