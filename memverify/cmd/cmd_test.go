package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/sarchlab/memverify/config"
	"github.com/sarchlab/memverify/datarecording"
	"github.com/sarchlab/memverify/dut"
	"github.com/sarchlab/memverify/scoreboard"
)

func newRunCommand(args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)
	Expect(cmd.Flags().Parse(args)).To(Succeed())

	return cmd
}

var _ = Describe("Run command", func() {
	It("should use the defaults without flags", func() {
		c, err := loadConfig(newRunCommand())

		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(config.Defaults()))
	})

	It("should let flags override the config file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run.yaml")
		Expect(os.WriteFile(path,
			[]byte("mode: stress\nseed: 5\ntick_budget: 300\n"), 0o644)).
			To(Succeed())

		c, err := loadConfig(newRunCommand(
			"--config", path, "--seed", "9", "--policy", "strict"))

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Mode).To(Equal(config.ModeStress))
		Expect(c.Seed).To(Equal(int64(9)))
		Expect(c.TickBudget).To(Equal(uint64(300)))
		Expect(c.Policy).To(Equal(scoreboard.PolicyStrict))
	})

	It("should reject an unknown policy", func() {
		_, err := loadConfig(newRunCommand("--policy", "eager"))

		Expect(err).To(HaveOccurred())
	})

	It("should reject an invalid combination", func() {
		_, err := loadConfig(newRunCommand("--mode", "stress", "--budget", "0"))

		Expect(err).To(HaveOccurred())
	})

	It("should parse the faults", func() {
		faults, err := faultsFromFlags(newRunCommand(
			"--fault", "stale@18", "--fault", "bitflip@20:0x80"))

		Expect(err).NotTo(HaveOccurred())
		Expect(faults).To(Equal([]dut.Fault{
			{Kind: dut.FaultStaleOutput, Cycle: 18},
			{Kind: dut.FaultBitFlip, Cycle: 20, Mask: 0x80},
		}))
	})

	It("should reject a malformed fault", func() {
		_, err := faultsFromFlags(newRunCommand("--fault", "stale"))

		Expect(err).To(HaveOccurred())
	})

	It("should pass on a fault-free device", func() {
		out := new(bytes.Buffer)

		r, err := runTestbench(context.Background(), out, config.Defaults(),
			nil, false)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("PASS run=" + r.RunID))
	})
})

var _ = Describe("Report command", func() {
	It("should summarize a recorded run with mismatches", func() {
		path := filepath.Join(GinkgoT().TempDir(), "faulty")

		c := config.Defaults()
		c.RecordPath = path

		faults := []dut.Fault{
			{Kind: dut.FaultStaleOutput, Cycle: 18},
			{Kind: dut.FaultBitFlip, Cycle: 20, Mask: 0x80},
		}

		runOut := new(bytes.Buffer)
		r, err := runTestbench(context.Background(), runOut, c, faults, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.MismatchCount).To(Equal(2))
		Expect(runOut.String()).To(ContainSubstring("mismatch at tick 18"))

		out := new(bytes.Buffer)
		err = report(context.Background(), out,
			datarecording.FileName(path), 4, 20)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Command: "))
		Expect(out.String()).To(ContainSubstring("FAIL run=" + r.RunID))
		Expect(out.String()).To(ContainSubstring(
			"34 ticks driven, 16 verdicts, 2 mismatches"))
		Expect(out.String()).To(ContainSubstring(
			"@18 expected=0x01 observed=0x00"))
		Expect(out.String()).To(ContainSubstring(
			"@20 expected=0x03 observed=0x83"))
		Expect(out.String()).To(ContainSubstring("Mismatches by tick:"))
	})

	It("should fail on a file that is not a recording", func() {
		err := report(context.Background(), new(bytes.Buffer),
			filepath.Join(GinkgoT().TempDir(), "missing.sqlite3"), 4, 20)

		Expect(err).To(HaveOccurred())
	})
})
