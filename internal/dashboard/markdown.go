package dashboard

import (
	"fmt"
	"strings"
)

// Markdown renders a view as a markdown document for terminal display
func Markdown(v View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Welcome back, %s\n\n", v.User.Name)
	fmt.Fprintf(&b, "_%s_ · %s\n\n", v.User.Role, v.GeneratedAt.Format("Jan 2, 2006 15:04 MST"))

	b.WriteString("## Overview\n\n")
	b.WriteString("| | Value | Change |\n|---|---:|---|\n")
	for _, t := range v.Tiles {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", t.Label, t.Value, t.Change)
	}
	b.WriteString("\n")

	b.WriteString("## Investments\n\n")
	if v.Empty {
		b.WriteString("No investments found. Run `okeamah invest` to make your first investment.\n\n")
	} else {
		b.WriteString("| Investment | Type | Amount | Return | Status | Maturity | Certificate |\n")
		b.WriteString("|---|---|---:|---:|---|---|---|\n")
		for _, r := range v.Rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				r.Name, r.TypeLabel, r.Amount, r.ExpectedReturn, r.Status, r.MaturityDate, r.CertificateNumber)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Performance\n\n")
	b.WriteString("| Month | Value |\n|---|---:|\n")
	for i, label := range v.Performance.Labels {
		fmt.Fprintf(&b, "| %s | %s |\n", label, FormatUSD(v.Performance.Values[i]))
	}
	b.WriteString("\n")

	b.WriteString("## Allocation\n\n")
	for _, s := range v.Allocation.Slices() {
		if s.Percent == 0 {
			continue
		}
		fmt.Fprintf(&b, "- **%s** %d%% %s\n", s.Label, s.Percent, strings.Repeat("█", s.Percent/5))
	}

	return b.String()
}
