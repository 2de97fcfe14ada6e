package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pawanm992002/nimantran-backend/pkg/batch"
)

var (
	colorCyan  = lipgloss.Color("36")  // Teal - primary
	colorGreen = lipgloss.Color("35")  // Green - success
	colorRed   = lipgloss.Color("167") // Soft red - errors
	colorBlue  = lipgloss.Color("75")  // Light blue - links
	colorDim   = lipgloss.Color("240") // Dim gray - muted text
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
)

// printGuestLine prints one per-guest result line as the batch settles.
func printGuestLine(p batch.Progress) {
	if p.Status == batch.StatusDone {
		fmt.Printf("%s %s %s\n",
			styleSuccess.Render(iconSuccess),
			p.Guest.Name,
			styleDim.Render(p.Guest.MobileNumber))
		return
	}
	fmt.Printf("%s %s %s\n",
		styleError.Render(iconError),
		p.Guest.Name,
		styleDim.Render(p.Error))
}

// printSummary prints the batch totals and output location.
func printSummary(res *batch.Result, outDir string) {
	fmt.Println()
	fmt.Println(styleTitle.Render("Batch complete"))
	fmt.Printf("  rendered: %s\n", styleSuccess.Render(fmt.Sprintf("%d", res.Completed)))
	if res.Failed > 0 {
		fmt.Printf("  failed:   %s\n", styleError.Render(fmt.Sprintf("%d", res.Failed)))
	}
	fmt.Printf("  output:   %s\n", styleLink.Render(outDir))
	if res.ArchiveURL != "" {
		fmt.Printf("  archive:  %s\n", styleLink.Render(res.ArchiveURL))
	}
}
