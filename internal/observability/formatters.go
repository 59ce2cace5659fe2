// Package observability renders human-readable summaries of hiring state for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/campaign"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCollections outputs record counts per collection, sorted by name.
func (p *Printer) PrintCollections(counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	names := make([]string, 0, len(counts))
	total := 0
	for name, n := range counts {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("%-22s %6d\n", name, counts[name]))
	}
	sb.WriteString(fmt.Sprintf("%-22s %6d", "total", total))

	p.printBox("STORE COLLECTIONS", sb.String())
}

// PrintPipeline outputs application counts per hiring stage in funnel order.
func (p *Printer) PrintPipeline(applications []types.Application) {
	if len(applications) == 0 {
		return
	}

	byStage := make(map[types.Stage]int, len(types.AllStages()))
	for _, app := range applications {
		byStage[app.Stage]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applications: %d\n\n", len(applications)))
	for _, stage := range types.AllStages() {
		sb.WriteString(fmt.Sprintf("  %-12s %4d\n", stage, byStage[stage]))
	}

	p.printBox("HIRING PIPELINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDeliveries outputs webhook delivery counts per status and the most
// recent failures.
func (p *Printer) PrintDeliveries(deliveries []types.WebhookDelivery) {
	if len(deliveries) == 0 {
		return
	}

	byStatus := map[types.WebhookStatus]int{}
	var failed []types.WebhookDelivery
	for _, d := range deliveries {
		byStatus[d.Status]++
		if d.Status == types.WebhookFailed || d.Status == types.WebhookRetryPending {
			failed = append(failed, d)
		}
	}

	var sb strings.Builder
	for _, status := range []types.WebhookStatus{
		types.WebhookReceived, types.WebhookProcessed, types.WebhookRetryPending, types.WebhookFailed,
	} {
		sb.WriteString(fmt.Sprintf("  %-14s %4d\n", status, byStatus[status]))
	}

	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].UpdatedAt.After(failed[j].UpdatedAt) })
		sb.WriteString("\nNeeds attention:\n")
		count := min(len(failed), maxItemsToShow)
		for i := 0; i < count; i++ {
			d := failed[i]
			sb.WriteString(fmt.Sprintf("  • %s (%s, %d attempts)\n", d.Key, d.Status, d.Attempts))
			if d.LastError != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", d.LastError))
			}
		}
		if len(failed) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(failed)-maxItemsToShow))
		}
	}

	p.printBox("WEBHOOK DELIVERIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCampaigns outputs joiner progress and health for each campaign.
func (p *Printer) PrintCampaigns(campaigns []types.Campaign) {
	if len(campaigns) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(campaigns), maxItemsToShow)
	for i := 0; i < count; i++ {
		progress := campaign.ProgressFor(campaigns[i])
		sb.WriteString(fmt.Sprintf("%s (%s)\n", progress.EmployerName, progress.City))
		sb.WriteString(fmt.Sprintf("    Joined: %d/%d  Offers: %d  Leads: %d\n",
			progress.Counts.Joined, progress.TargetJoiners, progress.Counts.Offers, progress.Counts.Leads))
		sb.WriteString(fmt.Sprintf("    Health: %s\n", progress.HealthStatus))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(campaigns) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more\n", len(campaigns)-maxItemsToShow))
	}

	p.printBox("FIRST-10 CAMPAIGNS", strings.TrimSuffix(sb.String(), "\n"))
}
