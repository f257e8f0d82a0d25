package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/cbmetrics"
)

const testArch = `
# two block types on a 6x6 island
channel 16;
segment L4 length 4;

block clb {
	class receiver pins 0..39;
	class driver pins 40..59;
	fc receiver 4;
	fc driver 4;
	pinloc top 40 44 48 52 56;
	pinloc right 41 45 49 53 57;
	pinloc bottom 42 46 50 54 58;
	pinloc left 43 47 51 55 59;
}

block io pins 4 {
	class receiver pins 0, 1;
	class driver pins 2..3;
	fc receiver 2;
	fc driver 2;
}

grid 6 x 6 {
	fill clb;
	perimeter io;
}
`

// resetFlags puts every flag of c and its subcommands back to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

func writeArch(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "fabric.arch")
	if err := os.WriteFile(path, []byte(testArch), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestArchE2E(t *testing.T) {
	_, archPath := writeArch(t)

	output, err := run(t, "arch", archPath)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{"Channel width: 16", "Wire types: 4", "Grid: 6 x 6", "clb", "io", "EMPTY"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\nGot:\n%s", want, output)
		}
	}
}

func TestGenerateAndMetricsE2E(t *testing.T) {
	dir, archPath := writeArch(t)

	for _, name := range []string{"clb.tsv", "clb.sexp"} {
		t.Run(name, func(t *testing.T) {
			mapFile := filepath.Join(dir, "maps", name)
			output, err := run(t, "generate", archPath, "--block", "clb", "--out", mapFile, "--seed", "5")
			if err != nil {
				t.Fatalf("generate: %v\nOutput: %s", err, output)
			}
			if !strings.Contains(output, "saved to: "+mapFile) {
				t.Errorf("unexpected generate output:\n%s", output)
			}

			output, err = run(t, "metrics", archPath, "--block", "clb", "--map", mapFile)
			if err != nil {
				t.Fatalf("metrics: %v\nOutput: %s", err, output)
			}
			for _, want := range []string{"Block:               clb (20 driver pins, Fc 4)", "Wire types:          4", "Pin diversity:"} {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing %q\nGot:\n%s", want, output)
				}
			}

			output, err = run(t, "metrics", archPath, "--map", mapFile, "--json")
			if err != nil {
				t.Fatalf("metrics --json: %v", err)
			}
			var h cbmetrics.Homogeneity
			if err := json.Unmarshal([]byte(output), &h); err != nil {
				t.Fatalf("bad JSON: %v\n%s", err, output)
			}
			if h.NumWireTypes != 4 || h.PinDiversity <= 0 || h.PinDiversity > 1 {
				t.Errorf("unexpected metrics %+v", h)
			}
		})
	}
}

func TestTuneE2E(t *testing.T) {
	dir, archPath := writeArch(t)
	mapFile := filepath.Join(dir, "clb.tsv")
	if out, err := run(t, "generate", archPath, "--out", mapFile, "--seed", "11"); err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}

	out, err := run(t, "metrics", archPath, "--map", mapFile, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var base cbmetrics.Homogeneity
	if err := json.Unmarshal([]byte(out), &base); err != nil {
		t.Fatal(err)
	}

	t.Run("already on target", func(t *testing.T) {
		out, err := run(t, "tune", "hamming", archPath, "--map", mapFile, "--metric", "hd",
			"--target", jsonFloat(base.HammingDistance), "--tol", "0.001", "--json")
		if err != nil {
			t.Fatalf("tune: %v\n%s", err, out)
		}
		var res cbmetrics.Result
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("bad JSON: %v\n%s", err, out)
		}
		if !res.Success || res.Iterations != 0 {
			t.Errorf("result %+v, want immediate success", res)
		}
	})

	t.Run("hamming writes tuned map", func(t *testing.T) {
		tuned := filepath.Join(dir, "tuned.sexp")
		out, err := run(t, "tune", "hamming", archPath, "--map", mapFile, "--metric", "wh",
			"--target", "0", "--tol", "0", "--max-iter", "200", "--seed", "3", "--out", tuned)
		if err != nil {
			t.Fatalf("tune: %v\n%s", err, out)
		}
		for _, want := range []string{"wire-homogeneity:", "Iterations:", "Track map saved to: " + tuned} {
			if !strings.Contains(out, want) {
				t.Errorf("Output missing %q\nGot:\n%s", want, out)
			}
		}
		if out, err := run(t, "metrics", archPath, "--map", tuned); err != nil {
			t.Errorf("tuned map unreadable: %v\n%s", err, out)
		}
	})

	t.Run("pin swap", func(t *testing.T) {
		out, err := run(t, "tune", "pin", archPath, "--map", mapFile, "--metric", "pd",
			"--target", "1", "--move", "swap", "--max-iter", "200", "--seed", "4")
		if err != nil {
			t.Fatalf("tune: %v\n%s", err, out)
		}
		if !strings.Contains(out, "No output file specified") {
			t.Errorf("expected a warning about the missing --out\nGot:\n%s", out)
		}
	})
}

func TestFabricE2E(t *testing.T) {
	dir, archPath := writeArch(t)
	mapFile := filepath.Join(dir, "clb.tsv")
	if out, err := run(t, "generate", archPath, "--out", mapFile, "--seed", "2"); err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}

	out, err := run(t, "fabric", archPath, "--map", "clb="+mapFile, "--seed", "9")
	if err != nil {
		t.Fatalf("fabric: %v\n%s", err, out)
	}
	for _, want := range []string{"Fabric driver pins:", "Fabric pin homogeneity:", "clb", "io"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q\nGot:\n%s", want, out)
		}
	}

	out, err = run(t, "fabric", archPath, "--map", "clb="+mapFile, "--seed", "9", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var report fabricReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	// 16 clb tiles with 20 drivers, 16 io tiles with 2 drivers
	if report.Fabric.TotalPins != 16*20+16*2 {
		t.Errorf("TotalPins = %d, want %d", report.Fabric.TotalPins, 16*20+16*2)
	}
	if _, ok := report.Types["clb"]; !ok {
		t.Errorf("clb missing from report: %+v", report.Types)
	}
}

func TestCommandErrorsE2E(t *testing.T) {
	dir, archPath := writeArch(t)
	mapFile := filepath.Join(dir, "clb.tsv")
	if out, err := run(t, "generate", archPath, "--out", mapFile, "--seed", "1"); err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"unknown block", []string{"metrics", archPath, "--block", "dsp", "--map", mapFile}},
		{"bad direction", []string{"metrics", archPath, "--dir", "open", "--map", mapFile}},
		{"missing map file", []string{"metrics", archPath, "--map", filepath.Join(dir, "nope.tsv")}},
		{"missing architecture", []string{"arch", filepath.Join(dir, "nope.arch")}},
		{"pin metric to hamming tuner", []string{"tune", "hamming", archPath, "--map", mapFile, "--metric", "pd", "--target", "0.5"}},
		{"bad fabric map", []string{"fabric", archPath, "--map", "clb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out, err := run(t, tt.args...); err == nil {
				t.Errorf("Expected error but got none\nOutput: %s", out)
			}
		})
	}
}

func jsonFloat(v float64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
