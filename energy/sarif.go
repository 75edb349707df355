package energy

import (
	"io"

	"github.com/owenrumney/go-sarif/sarif"
)

const toolName = "matbench-energy"

// rule ids used in the SARIF report, one per line kind and warning kind
func lineRuleID(k Kind) string {
	return k.String() + "-line"
}

// SarifRun converts the skipped lines and warnings of res into a SARIF run
// whose results point at path.
func SarifRun(path string, res *Result) *sarif.Run {
	run := sarif.NewRun(toolName, "https://en.wikipedia.org/wiki/Trapezoidal_rule")
	for _, le := range res.Skipped {
		addRunResult(run, lineRuleID(le.Kind), le.Error(), path, le.Line)
	}
	for _, w := range res.Warnings {
		addRunResult(run, w.Kind.String(), w.Message, path, w.Line)
	}
	return run
}

// WriteSARIF writes a SARIF 2.1.0 report for res to w.
func WriteSARIF(w io.Writer, path string, res *Result) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}
	report.AddRun(SarifRun(path, res))
	return report.Write(w)
}

func addRunResult(run *sarif.Run, ruleID, messageText, filePath string, line int) {
	run.AddResult(ruleID).
		WithLocation(sarif.NewLocationWithPhysicalLocation(sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().
				WithUri(filePath)).
			WithRegion(sarif.NewRegion().
				WithStartLine(line).
				WithStartColumn(1)))).
		WithMessage(sarif.NewMessage().WithText(messageText))
}
